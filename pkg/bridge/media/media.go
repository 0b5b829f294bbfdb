// Copyright 2024-2026 Aiku AI

// Package media models the media content of Telegram messages in a form
// that survives a JSON round trip, so items can be cached while the rest of
// a media group arrives.
package media

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/tgtext"
)

// Kind is the closed set of media kinds a Telegram message can carry.
type Kind string

const (
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindAnimation Kind = "animation"
	KindSticker   Kind = "sticker"
	KindVideoNote Kind = "video_note"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindDocument  Kind = "document"
	KindContact   Kind = "contact"
	KindVenue     Kind = "venue"
	KindLocation  Kind = "location"
	KindPoll      Kind = "poll"
	KindDice      Kind = "dice"
	KindText      Kind = "text"
	KindOther     Kind = "other"
)

// attachable kinds are the ones Mastodon accepts as attachments. Everything
// else fails publication, except text which simply contributes no file.
var attachableKinds = map[Kind]bool{
	KindPhoto:     true,
	KindVideo:     true,
	KindAnimation: true,
	KindSticker:   true,
	KindVideoNote: true,
}

// Item is the media content of a single physical message.
type Item struct {
	Kind            Kind            `json:"kind"`
	FileID          string          `json:"file_id,omitempty"`
	FileUniqueID    string          `json:"file_unique_id,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	CaptionEntities []tgtext.Entity `json:"caption_entities,omitempty"`
	// Spoiler marks the item as sensitive content.
	// TODO: populate from has_media_spoiler once the bot API library
	// exposes it; until then sensitivity is driven by the /post +cw flag.
	Spoiler bool `json:"spoiler,omitempty"`
}

// Supported reports whether the item can be part of a publication: either an
// attachable media kind or plain text.
func (i *Item) Supported() bool {
	return i.Kind == KindText || attachableKinds[i.Kind]
}

// HasFile reports whether the item carries a downloadable file.
func (i *Item) HasFile() bool {
	return i.FileID != "" && attachableKinds[i.Kind]
}

// FromMessage extracts the media item of a message. For photos the highest
// resolution variant by pixel area becomes the canonical file.
func FromMessage(msg *tgbotapi.Message) *Item {
	item := &Item{
		Caption:         msg.Caption,
		CaptionEntities: tgtext.ConvertEntities(msg.CaptionEntities),
	}

	switch {
	case len(msg.Photo) > 0:
		best := BestPhoto(msg.Photo)
		item.Kind = KindPhoto
		item.FileID = best.FileID
		item.FileUniqueID = best.FileUniqueID
	case msg.Video != nil:
		item.Kind = KindVideo
		item.FileID = msg.Video.FileID
		item.FileUniqueID = msg.Video.FileUniqueID
	case msg.Animation != nil:
		item.Kind = KindAnimation
		item.FileID = msg.Animation.FileID
		item.FileUniqueID = msg.Animation.FileUniqueID
	case msg.Sticker != nil:
		item.Kind = KindSticker
		item.FileID = msg.Sticker.FileID
		item.FileUniqueID = msg.Sticker.FileUniqueID
	case msg.VideoNote != nil:
		item.Kind = KindVideoNote
		item.FileID = msg.VideoNote.FileID
		item.FileUniqueID = msg.VideoNote.FileUniqueID
	case msg.Audio != nil:
		item.Kind = KindAudio
		item.FileID = msg.Audio.FileID
		item.FileUniqueID = msg.Audio.FileUniqueID
	case msg.Voice != nil:
		item.Kind = KindVoice
		item.FileID = msg.Voice.FileID
		item.FileUniqueID = msg.Voice.FileUniqueID
	case msg.Document != nil:
		item.Kind = KindDocument
		item.FileID = msg.Document.FileID
		item.FileUniqueID = msg.Document.FileUniqueID
	case msg.Contact != nil:
		item.Kind = KindContact
	case msg.Venue != nil:
		item.Kind = KindVenue
	case msg.Location != nil:
		item.Kind = KindLocation
	case msg.Poll != nil:
		item.Kind = KindPoll
	case msg.Dice != nil:
		item.Kind = KindDice
	case msg.Text != "":
		item.Kind = KindText
		item.Caption = msg.Text
		item.CaptionEntities = tgtext.ConvertEntities(msg.Entities)
	default:
		item.Kind = KindOther
	}

	return item
}

// BestPhoto returns the variant with the largest pixel area.
func BestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, size := range sizes[1:] {
		if size.Width*size.Height > best.Width*best.Height {
			best = size
		}
	}
	return best
}

// Set is the media of one logical post: a single item, or a media group
// ordered by arrival sequence.
type Set struct {
	GroupID string
	Items   []*Item
}

// Single wraps one item as a Set.
func Single(item *Item) *Set {
	return &Set{Items: []*Item{item}}
}

// Group wraps the resolved items of a media group.
func Group(groupID string, items []*Item) *Set {
	return &Set{GroupID: groupID, Items: items}
}

// Caption returns the first non-empty caption among the items, with its
// entities.
func (s *Set) Caption() (string, []tgtext.Entity) {
	for _, item := range s.Items {
		if item.Caption != "" {
			return item.Caption, item.CaptionEntities
		}
	}
	return "", nil
}

// Files returns the attachable items in order.
func (s *Set) Files() []*Item {
	files := make([]*Item, 0, len(s.Items))
	for _, item := range s.Items {
		if item.HasFile() {
			files = append(files, item)
		}
	}
	return files
}

// Unsupported returns the first item that cannot be published, or nil.
func (s *Set) Unsupported() *Item {
	for _, item := range s.Items {
		if !item.Supported() {
			return item
		}
	}
	return nil
}

// Sensitive reports whether any item is marked as sensitive content.
func (s *Set) Sensitive() bool {
	for _, item := range s.Items {
		if item.Spoiler {
			return true
		}
	}
	return false
}
