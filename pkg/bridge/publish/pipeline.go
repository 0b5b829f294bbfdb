// Copyright 2024-2026 Aiku AI

package publish

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/media"
)

// FileStreamer is the source-side collaborator: it streams the bytes of a
// remote Telegram file into dst.
type FileStreamer interface {
	StreamFile(ctx context.Context, fileID string, dst io.Writer) error
}

// streamAttach pipes one file from the source download into the destination
// upload without buffering it in memory. Both sides run concurrently,
// bridged by an io.Pipe: the pipe's synchronous handoff provides the
// back-pressure, and closing it on failure unblocks the other side. Either
// side's error fails the whole attach.
//
// Attachments of one post go through here strictly one at a time, since the
// destination attaches media in upload order.
func (p *Publisher) streamAttach(ctx context.Context, account Account, item *media.Item) (string, error) {
	pr, pw := io.Pipe()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := p.files.StreamFile(ctx, item.FileID, pw)
		pw.CloseWithError(err)
		return err
	})

	var attachmentID string
	eg.Go(func() error {
		id, err := account.AttachMedia(ctx, pr, item.Caption)
		if err != nil {
			// Unblock the download side if it is still writing.
			pr.CloseWithError(err)
			return err
		}
		attachmentID = id
		return nil
	})

	if err := eg.Wait(); err != nil {
		return "", err
	}
	return attachmentID, nil
}
