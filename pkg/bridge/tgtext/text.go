// Copyright 2024-2026 Aiku AI

// Package tgtext models Telegram message text together with its formatting
// entities. Entity offsets and lengths are measured in UTF-16 code units,
// the addressing convention of the Telegram Bot API, so every operation that
// shifts text must shift offsets by the same code-unit delta.
package tgtext

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EntityKind identifies a formatting entity type. The values match the
// Telegram Bot API entity type strings.
type EntityKind string

const (
	Mention       EntityKind = "mention"
	Hashtag       EntityKind = "hashtag"
	Cashtag       EntityKind = "cashtag"
	BotCommand    EntityKind = "bot_command"
	URL           EntityKind = "url"
	Email         EntityKind = "email"
	PhoneNumber   EntityKind = "phone_number"
	Bold          EntityKind = "bold"
	Italic        EntityKind = "italic"
	Underline     EntityKind = "underline"
	Strikethrough EntityKind = "strikethrough"
	Spoiler       EntityKind = "spoiler"
	Code          EntityKind = "code"
	Pre           EntityKind = "pre"
	TextLink      EntityKind = "text_link"
	TextMention   EntityKind = "text_mention"
	CustomEmoji   EntityKind = "custom_emoji"
)

// Entity is a single formatting span over a Text. URL is only set for
// text_link entities.
type Entity struct {
	Kind   EntityKind `json:"kind"`
	URL    string     `json:"url,omitempty"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
}

// End returns the exclusive end offset of the entity in UTF-16 code units.
func (e Entity) End() int {
	return e.Offset + e.Length
}

// Text is a message text with its ordered entity list. Entities are kept in
// append order, not sorted by offset: a footer appended after the body may
// carry an entity with a lower offset than entities already in the list.
type Text struct {
	text     string
	entities []Entity
}

// New creates a Text from a raw string and its entities.
func New(text string, entities []Entity) *Text {
	return &Text{text: text, entities: entities}
}

// FromMessage builds a Text from a Telegram message, preferring the message
// text over the caption.
func FromMessage(msg *tgbotapi.Message) *Text {
	if msg.Text != "" || len(msg.Entities) > 0 {
		return New(msg.Text, ConvertEntities(msg.Entities))
	}
	return New(msg.Caption, ConvertEntities(msg.CaptionEntities))
}

// ConvertEntities maps Telegram Bot API entities to the internal
// representation. Offsets are passed through unchanged since both sides
// count UTF-16 code units.
func ConvertEntities(entities []tgbotapi.MessageEntity) []Entity {
	if len(entities) == 0 {
		return nil
	}
	converted := make([]Entity, 0, len(entities))
	for _, ent := range entities {
		converted = append(converted, Entity{
			Kind:   EntityKind(ent.Type),
			URL:    ent.URL,
			Offset: ent.Offset,
			Length: ent.Length,
		})
	}
	return converted
}

// UTF16Len returns the length of s in UTF-16 code units. Runes outside the
// basic multilingual plane count as two units (a surrogate pair).
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// String returns the raw text.
func (t *Text) String() string {
	return t.text
}

// Entities returns the entity list in append order.
func (t *Text) Entities() []Entity {
	return t.entities
}

// Len returns the text length in UTF-16 code units.
func (t *Text) Len() int {
	return UTF16Len(t.text)
}

// Append concatenates other onto t. Every entity of other is shifted by the
// current code-unit length of t and appended after the existing entities.
func (t *Text) Append(other *Text) {
	base := t.Len()
	t.text += other.text
	for _, ent := range other.entities {
		ent.Offset += base
		t.entities = append(t.entities, ent)
	}
}

// Prepend inserts other before t. Every existing entity is shifted by the
// code-unit length of other; other's entities are inserted before the
// existing ones with their offsets unchanged.
func (t *Text) Prepend(other *Text) {
	shift := other.Len()
	t.text = other.text + t.text
	shifted := make([]Entity, 0, len(other.entities)+len(t.entities))
	shifted = append(shifted, other.entities...)
	for _, ent := range t.entities {
		ent.Offset += shift
		shifted = append(shifted, ent)
	}
	t.entities = shifted
}

// AppendText appends plain text without any entity.
func (t *Text) AppendText(text string) {
	t.text += text
}

// AppendTextWithEntity appends text covered by a single new entity of the
// given kind.
func (t *Text) AppendTextWithEntity(text string, kind EntityKind) {
	t.entities = append(t.entities, Entity{
		Kind:   kind,
		Offset: t.Len(),
		Length: UTF16Len(text),
	})
	t.AppendText(text)
}

// PrependText inserts plain text at the start, shifting every entity.
func (t *Text) PrependText(text string) {
	t.Prepend(New(text, nil))
}

// PrependTextWithEntity inserts text at the start covered by a single new
// entity of the given kind.
func (t *Text) PrependTextWithEntity(text string, kind EntityKind) {
	t.Prepend(New(text, []Entity{{
		Kind:   kind,
		Offset: 0,
		Length: UTF16Len(text),
	}}))
}

// AppendTextLink appends linkText covered by a text_link entity pointing at
// url.
func (t *Text) AppendTextLink(linkText, url string) {
	t.entities = append(t.entities, Entity{
		Kind:   TextLink,
		URL:    url,
		Offset: t.Len(),
		Length: UTF16Len(linkText),
	})
	t.AppendText(linkText)
}

// AppendTextLinkFallback appends linkText as a text_link when url is
// non-empty, or as plain text otherwise.
func (t *Text) AppendTextLinkFallback(linkText, url string) {
	if url != "" {
		t.AppendTextLink(linkText, url)
	} else {
		t.AppendText(linkText)
	}
}
