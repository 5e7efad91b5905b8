package catalog

import "strings"

var providerAliases = map[string]string{
	"eleven_labs": "elevenlabs",
	"eleven-labs": "elevenlabs",
	"11labs":      "elevenlabs",
}

// NormalizeProviderSlug canonicalizes provider identifiers so catalog entries
// and builder lookups share the same names.
func NormalizeProviderSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	if slug == "" {
		return ""
	}
	if canonical, ok := providerAliases[slug]; ok {
		return canonical
	}
	return slug
}
