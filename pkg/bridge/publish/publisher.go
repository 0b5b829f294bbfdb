// Copyright 2024-2026 Aiku AI

// Package publish turns a resolved Telegram message (or media group) into a
// single Mastodon post: it validates the media kinds, renders the body,
// streams each attachment to the destination, and submits the post with
// bounded retry while the server is still processing attachments.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/mastodonfmt"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/media"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/tgtext"
)

const (
	// VisibilityPublic is the default visibility of published posts.
	VisibilityPublic = "public"

	// linkUnavailable is shown when the server returns no permalink for a
	// created post.
	linkUnavailable = "*invisible*"

	markdownContentType = "text/markdown"
	plainContentType    = "text/plain"
)

var (
	// ErrEmptyPost is returned when a post has neither body text nor
	// attachments.
	ErrEmptyPost = errors.New("content cannot be empty")

	// ErrMediaProcessing is the transient submission failure reported by
	// the destination while attachments are still being processed. Account
	// implementations wrap their server's specific error into it; any
	// submission error that does not match is terminal.
	ErrMediaProcessing = errors.New("attachments have not finished processing")

	// ErrProcessTimeout is returned when submission retries did not
	// succeed within the configured overall timeout.
	ErrProcessTimeout = errors.New("timeout waiting for server processing media")
)

// UnsupportedMediaError reports a media item kind that cannot be published.
// One unsupported item anywhere in a group fails the whole publish; no
// partial post is ever submitted.
type UnsupportedMediaError struct {
	Kind media.Kind
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported media kind %q", e.Kind)
}

// PendingPost is the final post payload submitted to the destination.
type PendingPost struct {
	Status      string
	Visibility  string
	Language    string
	MediaIDs    []string
	Sensitive   bool
	ContentType string
}

// Account is the destination-side collaborator: an authenticated Mastodon
// session that can receive media uploads and post submissions.
type Account interface {
	// AttachMedia uploads a media file read from data and returns the
	// attachment ID.
	AttachMedia(ctx context.Context, data io.Reader, description string) (string, error)
	// SubmitPost creates the post and returns its permalink ("" if the
	// server did not provide one). While attachments are still being
	// processed server-side it returns an error wrapping
	// ErrMediaProcessing.
	SubmitPost(ctx context.Context, post *PendingPost) (string, error)
}

// LanguageDetector detects the language of plain text, reporting false when
// there is no reliable signal.
type LanguageDetector interface {
	Detect(text string) (lang string, ok bool)
}

// ProgressReporter surfaces pipeline progress to the user. Implementations
// are fire-and-forget: failures must never block or fail the pipeline.
type ProgressReporter interface {
	Report(step string)
}

type noopProgress struct{}

func (noopProgress) Report(string) {}

// Config holds the publisher's fixed parameters.
type Config struct {
	// DefaultVisibility is used when a request has no override.
	DefaultVisibility string
	// DefaultLanguage is the language tag used when detection yields no
	// signal.
	DefaultLanguage string
	// RetryInterval is the wait between submissions while the server is
	// processing attachments.
	RetryInterval time.Duration
	// ProcessTimeout bounds the whole retry loop; when it elapses, the
	// publish fails with ErrProcessTimeout regardless of retry progress.
	ProcessTimeout time.Duration
}

// Publisher runs the publication pipeline. One Publisher is shared by all
// requests; all per-request state lives in the Request.
type Publisher struct {
	files  FileStreamer
	detect LanguageDetector
	cfg    Config
	log    zerolog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(files FileStreamer, detect LanguageDetector, cfg Config, log zerolog.Logger) *Publisher {
	if cfg.DefaultVisibility == "" {
		cfg.DefaultVisibility = VisibilityPublic
	}
	return &Publisher{
		files:  files,
		detect: detect,
		cfg:    cfg,
		log:    log.With().Str("component", "publisher").Logger(),
	}
}

// Request is one publication: the resolved media set, the composed body and
// the destination account, plus per-request overrides.
type Request struct {
	Media    *media.Set
	Body     *tgtext.Text
	Account  Account
	Progress ProgressReporter

	// Visibility overrides the configured default when non-empty.
	Visibility string
	// Sensitive forces the sensitivity flag when set; otherwise the flag
	// is derived from the media items.
	Sensitive *bool
}

// Publish runs the pipeline to completion and returns the permalink of the
// created post.
func (p *Publisher) Publish(ctx context.Context, req *Request) (string, error) {
	progress := req.Progress
	if progress == nil {
		progress = noopProgress{}
	}

	// Validate the whole group before touching the network.
	if unsupported := req.Media.Unsupported(); unsupported != nil {
		return "", &UnsupportedMediaError{Kind: unsupported.Kind}
	}
	files := req.Media.Files()

	status, formatted := mastodonfmt.Render(req.Body)
	if strings.TrimSpace(status) == "" && len(files) == 0 {
		return "", ErrEmptyPost
	}

	language, detected := p.detect.Detect(tgtext.ExtractSemantics(req.Body))
	if !detected {
		language = p.cfg.DefaultLanguage
	}

	mediaIDs := make([]string, 0, len(files))
	for i, item := range files {
		progress.Report(fmt.Sprintf("uploading media (%d/%d)", i+1, len(files)))
		attachmentID, err := p.streamAttach(ctx, req.Account, item)
		if err != nil {
			return "", fmt.Errorf("failed to upload attachment %d of %d: %w", i+1, len(files), err)
		}
		mediaIDs = append(mediaIDs, attachmentID)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = p.cfg.DefaultVisibility
	}
	sensitive := req.Media.Sensitive()
	if req.Sensitive != nil {
		sensitive = *req.Sensitive
	}
	contentType := plainContentType
	if formatted {
		contentType = markdownContentType
	}

	post := &PendingPost{
		Status:      status,
		Visibility:  visibility,
		Language:    language,
		MediaIDs:    mediaIDs,
		Sensitive:   sensitive,
		ContentType: contentType,
	}

	progress.Report("publishing status")
	permalink, err := p.submitWithRetry(ctx, req.Account, post)
	if err != nil {
		return "", err
	}
	if permalink == "" {
		permalink = linkUnavailable
	}
	return permalink, nil
}

// submitWithRetry submits the post, retrying at a fixed interval while the
// server reports attachments still processing, bounded by the overall
// processing timeout. Any other error is terminal.
func (p *Publisher) submitWithRetry(ctx context.Context, account Account, post *PendingPost) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProcessTimeout)
	defer cancel()

	bo := backoff.WithContext(backoff.NewConstantBackOff(p.cfg.RetryInterval), ctx)
	permalink, err := backoff.RetryWithData(func() (string, error) {
		url, err := account.SubmitPost(ctx, post)
		if err != nil {
			if errors.Is(err, ErrMediaProcessing) {
				p.log.Debug().Err(err).Msg("Server still processing attachments, will retry")
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return url, nil
	}, bo)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrProcessTimeout
		}
		return "", err
	}
	return permalink, nil
}
