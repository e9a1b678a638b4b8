package domain

import "strings"

// NormalizeTag lowercases and trims a raw tag so the stored set has a single
// canonical spelling per tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// ExtractTags pulls #-prefixed tokens out of a caption. Tokens are
// whitespace-delimited, case-folded, stripped of leading and trailing '#'
// characters and de-duplicated in order of first appearance.
func ExtractTags(caption string) []string {
	if !strings.Contains(caption, "#") {
		return nil
	}

	seen := make(map[string]struct{})
	var tags []string

	for _, word := range strings.Fields(caption) {
		if !strings.HasPrefix(word, "#") {
			continue
		}

		tag := NormalizeTag(strings.Trim(word, "#"))
		if tag == "" {
			continue
		}

		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}
