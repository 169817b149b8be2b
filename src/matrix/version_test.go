package matrix

import (
	"reflect"
	"testing"
)

func TestParseVersionTag(t *testing.T) {
	vi, err := ParseVersionTag("17-3.5")
	if err != nil {
		t.Fatalf("ParseVersionTag: %v", err)
	}
	if vi.Postgres != 17 || vi.PostGIS.String() != "3.5.0" || vi.Experimental {
		t.Fatalf("unexpected %+v", vi)
	}

	vi, err = ParseVersionTag("18-3.6.0alpha1")
	if err != nil {
		t.Fatalf("ParseVersionTag: %v", err)
	}
	if !vi.Experimental || vi.PostGIS.Prerelease() != "alpha1" {
		t.Fatalf("expected prerelease, got %+v", vi)
	}

	vi, err = ParseVersionTag("17-master")
	if err != nil {
		t.Fatalf("ParseVersionTag: %v", err)
	}
	if !vi.Experimental || vi.PostGIS != nil {
		t.Fatalf("expected experimental master, got %+v", vi)
	}

	for _, bad := range []string{"17", "x-3.5", "17-", "17-notaversion"} {
		if _, err := ParseVersionTag(bad); err == nil {
			t.Errorf("ParseVersionTag(%q): expected error", bad)
		}
	}
}

func TestSortVersionTags(t *testing.T) {
	got := SortVersionTags([]string{"17-master", "17-3.5", "13-3.4", "17-3.4", "weird", "13-3.5"})
	want := []string{"13-3.4", "13-3.5", "17-3.4", "17-3.5", "17-master", "weird"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortVersionTags = %v, want %v", got, want)
	}
}

func TestPickLatestSkipsExperimental(t *testing.T) {
	got := PickLatest([]string{"16-3.5", "17-3.5", "17-3.4", "18-master", "18-3.6.0beta1"})
	if got != "17-3.5" {
		t.Fatalf("PickLatest = %q, want 17-3.5", got)
	}
	if PickLatest(nil) != "" {
		t.Fatal("PickLatest(nil) should be empty")
	}
}

func TestCellsOrderingAndExperimental(t *testing.T) {
	targets := []BuildTarget{
		{VersionTag: "17-master", Variant: VariantDefault},
		{VersionTag: "17-3.5", Variant: VariantAlpine},
		{VersionTag: "17-3.5", Variant: VariantDefault},
		{VersionTag: "13-3.5", Variant: VariantDefault},
	}

	cells := Cells(targets)
	var got []string
	for _, c := range cells {
		got = append(got, c.Version+"/"+c.Variant)
	}
	want := []string{"13-3.5/default", "17-3.5/default", "17-3.5/alpine", "17-master/default"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Cells order = %v, want %v", got, want)
	}
	if !cells[3].Experimental || cells[1].Experimental {
		t.Fatalf("experimental flags wrong: %+v", cells)
	}
	if cells[1].Postgres != "17" || cells[1].PostGIS != "3.5" {
		t.Fatalf("cell fields wrong: %+v", cells[1])
	}
}
