// Copyright 2024-2026 Aiku AI

package tgtext

import (
	"sort"
	"unicode/utf16"
)

// nonSemanticKinds are entity kinds whose covered text carries no linguistic
// signal: mentions, hashtags and raw URLs on otherwise non-English text skew
// language detection. Styling entities (bold, italic, text links, ...) are
// kept since their covered text is still prose.
var nonSemanticKinds = map[EntityKind]bool{
	Mention:     true,
	Hashtag:     true,
	Cashtag:     true,
	BotCommand:  true,
	URL:         true,
	Email:       true,
	PhoneNumber: true,
	Pre:         true,
	CustomEmoji: true,
}

// ExtractSemantics returns the text with every non-semantic entity's covered
// range removed, as input for language detection. An empty or all-whitespace
// result means there is no reliable signal.
//
// Matched ranges are deleted in reverse offset order, not reverse list
// order: deletions shrink the text, and walking back-to-front guarantees
// every not-yet-visited range still starts at its original offset. This is
// the opposite requirement from rendering, which must walk in reverse list
// order; the two must not share an iteration helper.
//
// Entities may nest or overlap; a range whose tail was already deleted by
// an overlapping higher-offset range is clamped to what remains.
func ExtractSemantics(t *Text) string {
	units := utf16.Encode([]rune(t.text))

	matched := make([]Entity, 0, len(t.entities))
	for _, ent := range t.entities {
		if !nonSemanticKinds[ent.Kind] {
			continue
		}
		if ent.Offset < 0 || ent.Length < 0 || ent.End() > len(units) {
			continue
		}
		matched = append(matched, ent)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Offset > matched[j].Offset
	})

	for _, ent := range matched {
		if ent.Offset >= len(units) {
			continue
		}
		end := min(ent.End(), len(units))
		units = append(units[:ent.Offset], units[end:]...)
	}
	return string(utf16.Decode(units))
}
