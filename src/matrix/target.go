package matrix

import (
	"errors"
	"fmt"
	"path"
)

// Variant is an alternate base-OS flavor of an image.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantAlpine  Variant = "alpine"
)

// ErrUnknownVariant is returned for variant names other than default/alpine.
var ErrUnknownVariant = errors.New("unknown variant")

// ParseVariant validates a variant name. Empty input yields "".
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "":
		return "", nil
	case VariantDefault, VariantAlpine:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownVariant, s, VariantDefault, VariantAlpine)
	}
}

// BuildTarget identifies one buildable unit.
type BuildTarget struct {
	VersionTag     string
	Variant        Variant
	HasVariantDir  bool
	PlatformSuffix string
}

// Name is the version tag with the variant suffix, e.g. "17-3.5-alpine".
// It does not include the platform suffix.
func (t BuildTarget) Name() string {
	if t.Variant == VariantAlpine {
		return t.VersionTag + "-alpine"
	}
	return t.VersionTag
}

// Tag is the image tag for the target: Name plus platform suffix.
func (t BuildTarget) Tag() string {
	return t.Name() + t.PlatformSuffix
}

// ContextDir returns the build-definition directory relative to the root.
func (t BuildTarget) ContextDir() string {
	if t.Variant == VariantAlpine {
		return path.Join(t.VersionTag, "alpine")
	}
	return t.VersionTag
}

// String implements fmt.Stringer.
func (t BuildTarget) String() string {
	return t.Tag()
}
