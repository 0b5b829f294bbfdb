// Copyright 2024-2026 Aiku AI

// Package mastodonfmt renders Telegram entity spans into Mastodon markdown.
package mastodonfmt

import (
	"unicode/utf16"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/tgtext"
)

// Render converts a Text into Mastodon markdown. Only text_link entities
// produce markup; every other entity kind is dropped silently, since inline
// links are the only formatting Mastodon renders reliably. The second return
// value reports whether any markup was produced.
//
// Entities are processed in reverse list order, not reverse offset order: a
// footer appended after the body may carry an earlier offset than entities
// already in the list, and its markup must still be inserted at its own
// boundaries before earlier list entries are handled. Each insertion happens
// only at the owning entity's start and end, so the offsets of entities
// processed later in the walk stay valid (overlapping entities are not
// rendered).
func Render(t *tgtext.Text) (string, bool) {
	entities := t.Entities()
	if len(entities) == 0 {
		return t.String(), false
	}

	units := utf16.Encode([]rune(t.String()))
	formatted := false

	for i := len(entities) - 1; i >= 0; i-- {
		ent := entities[i]
		if ent.Kind != tgtext.TextLink {
			continue
		}
		start, end := ent.Offset, ent.End()
		if start < 0 || start > end || end > len(units) {
			continue
		}

		closing := "](" + ent.URL + ")"
		if end < len(units) && units[end] != uint16(' ') {
			closing += " "
		}
		opening := " ["
		if start == 0 || units[start-1] == uint16(' ') {
			opening = "["
		}

		// End first: inserting at the start would shift the end position.
		units = insertUnits(units, end, closing)
		units = insertUnits(units, start, opening)
		formatted = true
	}

	return string(utf16.Decode(units)), formatted
}

func insertUnits(units []uint16, at int, text string) []uint16 {
	inserted := utf16.Encode([]rune(text))
	out := make([]uint16, 0, len(units)+len(inserted))
	out = append(out, units[:at]...)
	out = append(out, inserted...)
	out = append(out, units[at:]...)
	return out
}
