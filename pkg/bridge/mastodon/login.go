// Copyright 2024-2026 Aiku AI

package mastodon

import (
	"context"
	"fmt"
	"io"
	"strings"

	api "github.com/mattn/go-mastodon"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/publish"
)

// mediaProcessingError is the exact message Mastodon returns with HTTP 422
// while uploaded attachments are still being post-processed. Submissions
// failing with it should succeed if retried later.
const mediaProcessingError = "Cannot attach files that have not finished processing. Try again in a moment!"

// LoginUser is an authenticated session on a linked Mastodon account. It
// implements publish.Account.
type LoginUser struct {
	client   *api.Client
	server   string
	tgUserID int64
}

var _ publish.Account = (*LoginUser)(nil)

func newLoginUser(creds *credentials, tgUserID int64) *LoginUser {
	return &LoginUser{
		client: api.NewClient(&api.Config{
			Server:       creds.Server,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			AccessToken:  creds.AccessToken,
		}),
		server:   creds.Server,
		tgUserID: tgUserID,
	}
}

// Domain returns the server base URL of the linked account.
func (u *LoginUser) Domain() string {
	return strings.TrimPrefix(strings.TrimPrefix(u.server, "https://"), "http://")
}

// TelegramUserID returns the Telegram user the account is linked to.
func (u *LoginUser) TelegramUserID() int64 {
	return u.tgUserID
}

// AttachMedia uploads a media file streamed from data and returns the
// attachment ID. The reader is consumed as the upload progresses; the whole
// file is never held in memory.
func (u *LoginUser) AttachMedia(ctx context.Context, data io.Reader, description string) (string, error) {
	attachment, err := u.client.UploadMediaFromMedia(ctx, &api.Media{
		File:        data,
		Description: description,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	return string(attachment.ID), nil
}

// SubmitPost creates the post and returns its permalink. The server's
// "attachments not finished processing" response is wrapped into
// publish.ErrMediaProcessing so the publisher can retry it; everything else
// is terminal. The PendingPost content type is not sent: it is a glitch-soc
// API extension the client library does not carry.
func (u *LoginUser) SubmitPost(ctx context.Context, post *publish.PendingPost) (string, error) {
	mediaIDs := make([]api.ID, 0, len(post.MediaIDs))
	for _, id := range post.MediaIDs {
		mediaIDs = append(mediaIDs, api.ID(id))
	}

	status, err := u.client.PostStatus(ctx, &api.Toot{
		Status:     post.Status,
		Visibility: post.Visibility,
		Language:   post.Language,
		MediaIDs:   mediaIDs,
		Sensitive:  post.Sensitive,
	})
	if err != nil {
		if strings.Contains(err.Error(), mediaProcessingError) {
			return "", fmt.Errorf("%w: %v", publish.ErrMediaProcessing, err)
		}
		return "", err
	}
	return status.URL, nil
}
