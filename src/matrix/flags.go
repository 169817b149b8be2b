package matrix

// VariantFlags says which variants of a version are built.
type VariantFlags struct {
	BuildDefault bool
	BuildAlpine  bool
}

// ResolveVariantFlags applies the selection precedence:
//
//   - no version requested: both variants are candidates; alpine only
//     when the version has an alpine build definition.
//   - version without variant: same as above for that version.
//   - version and variant: only the requested variant is on.
//
// The alpine directory check runs last and can only turn alpine off.
// A variant without a version is ignored.
func ResolveVariantFlags(requestedVersion string, requestedVariant Variant, hasAlpineDir bool) VariantFlags {
	flags := VariantFlags{BuildDefault: true, BuildAlpine: true}

	if requestedVersion != "" && requestedVariant != "" {
		flags = VariantFlags{
			BuildDefault: requestedVariant == VariantDefault,
			BuildAlpine:  requestedVariant == VariantAlpine,
		}
	}

	if !hasAlpineDir {
		flags.BuildAlpine = false
	}
	return flags
}
