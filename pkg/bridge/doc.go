// Copyright 2024-2026 Aiku AI

// Package bridge implements a Telegram bot that republishes chat messages
// as Mastodon posts.
//
// A logical post may arrive as several physical messages (a media group
// sharing one group ID). Members are cached in SQLite as they arrive, since
// Telegram sends no "group complete" signal; when a user replies to any
// member with /post, the whole group is read back and published as one
// Mastodon status. Resolving a group that is still arriving publishes the
// cached subset.
//
// # Sub-packages
//
//   - tgtext models entity-annotated message text (UTF-16 code unit
//     offsets) and extracts language-detection input from it.
//   - mastodonfmt renders entity spans into Mastodon markdown.
//   - media maps Telegram messages to cacheable media items.
//   - store persists media groups, linked accounts and app registrations.
//   - mastodon wraps the Mastodon client: OAuth linking and the
//     authenticated session used for uploads and post submission.
//   - langdetect tags post content with a detected language.
//   - publish runs the publication pipeline: validate, render, stream
//     uploads, submit with bounded retry.
package bridge
