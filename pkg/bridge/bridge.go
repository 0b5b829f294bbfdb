// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/langdetect"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/mastodon"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/media"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/publish"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/store"
)

// Bridge wires the Telegram bot to the publication pipeline and owns the
// long-poll update loop.
type Bridge struct {
	cfg          *Config
	bot          *tgbotapi.BotAPI
	sender       messageSender
	db           *store.DB
	groups       *store.MediaGroupStore
	accounts     *mastodon.Service
	accountStore *store.AccountStore
	publisher    *publish.Publisher
	log          zerolog.Logger
}

// New constructs a Bridge from the configuration: connects the bot, opens
// the database and assembles the pipeline.
func New(cfg *Config, log zerolog.Logger) (*Bridge, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	log.Info().Str("username", bot.Self.UserName).Msg("Authenticated to Telegram")

	db, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	accountStore := store.NewAccountStore(db)
	accounts := mastodon.NewService(
		accountStore,
		store.NewAppStore(db),
		mastodon.NewSessionStore(),
		cfg.Mastodon.ClientName,
		cfg.Mastodon.Website,
		log,
	)

	publisher := publish.NewPublisher(
		&telegramFiles{bot: bot},
		langdetect.New(),
		publish.Config{
			DefaultVisibility: cfg.Publish.DefaultVisibility,
			DefaultLanguage:   cfg.Publish.DefaultLanguage,
			RetryInterval:     cfg.Publish.RetryInterval(),
			ProcessTimeout:    cfg.Publish.ProcessTimeout(),
		},
		log,
	)

	return &Bridge{
		cfg:          cfg,
		bot:          bot,
		sender:       &botSender{bot: bot},
		db:           db,
		groups:       store.NewMediaGroupStore(db),
		accounts:     accounts,
		accountStore: accountStore,
		publisher:    publisher,
		log:          log.With().Str("component", "bridge").Logger(),
	}, nil
}

// Run registers the command list and processes updates until ctx is done.
// Each update is handled on its own goroutine; independent requests do not
// coordinate with each other.
func (b *Bridge) Run(ctx context.Context) error {
	if _, err := b.bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.bot.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("Listening for updates")
	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Close releases the bridge's resources.
func (b *Bridge) Close() error {
	return b.db.Close()
}

func (b *Bridge) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		b.log.Trace().Int("update_id", update.UpdateID).Msg("Ignoring non-message update")
		return
	}

	log := b.log.With().
		Int64("chat_id", msg.Chat.ID).
		Int("msg_id", msg.MessageID).
		Logger()
	log.Trace().Msg("New message")

	// Record group members as they arrive; the group is read back in full
	// only when a /post targets one of its messages.
	if msg.MediaGroupID != "" {
		b.recordGroupMedia(ctx, log, msg)
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
	}
}

// recordGroupMedia caches the media of one media group member. Best effort:
// a failure here must not break message handling, it only degrades a later
// /post on the group.
func (b *Bridge) recordGroupMedia(ctx context.Context, log zerolog.Logger, msg *tgbotapi.Message) {
	item := media.FromMessage(msg)
	if err := b.groups.Record(ctx, msg.MediaGroupID, msg.MessageID, item); err != nil {
		log.Error().Err(err).Str("group_id", msg.MediaGroupID).Msg("Failed to cache media group item")
		return
	}
	log.Trace().Str("group_id", msg.MediaGroupID).Msg("Media group item cached")
}

// resolveMedia turns the replied-to message into the media set of its
// logical post: the full cached group when the message belongs to one, or
// the message's own media otherwise.
func (b *Bridge) resolveMedia(ctx context.Context, msg *tgbotapi.Message) (*media.Set, error) {
	if msg.MediaGroupID == "" {
		return media.Single(media.FromMessage(msg)), nil
	}
	items, err := b.groups.Resolve(ctx, msg.MediaGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media group: %w", err)
	}
	return media.Group(msg.MediaGroupID, items), nil
}

// telegramFiles implements publish.FileStreamer over the bot API file
// endpoints.
type telegramFiles struct {
	bot *tgbotapi.BotAPI
}

func (t *telegramFiles) StreamFile(ctx context.Context, fileID string, dst io.Writer) error {
	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(t.bot.Token), nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := t.bot.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: unexpected status %s", resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to stream file: %w", err)
	}
	return nil
}
