// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/media"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/publish"
	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/tgtext"
)

var botCommands = []tgbotapi.BotCommand{
	{Command: "auth", Description: "link your mastodon account"},
	{Command: "revoke", Description: "unlink your mastodon account"},
	{Command: "post", Description: "post the message you replied to mastodon (send with `help` for advanced usages)"},
}

const startText = `Synchronizes Telegram messages to Mastodon.

Reply to a message with /post to publish it. Send me /auth in direct message to link your account first.`

func (b *Bridge) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	log := b.log.With().
		Str("command", msg.Command()).
		Int64("chat_id", msg.Chat.ID).
		Logger()

	var text string
	var err error
	disablePreview := false

	switch msg.Command() {
	case "start":
		text = startText
		disablePreview = true
	case "ping":
		text = "Pong!"
	case "auth":
		text, disablePreview, err = b.cmdAuth(ctx, msg)
	case "revoke":
		text, err = b.cmdRevoke(ctx, msg)
	case "post":
		text, err = b.cmdPost(ctx, msg)
	case "broadcast":
		text, err = b.cmdBroadcast(ctx, msg)
	default:
		log.Trace().Msg("Unhandled command")
		return
	}

	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		text = "⚠️ " + err.Error()
	}
	if text == "" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	reply.DisableWebPagePreview = disablePreview
	if _, err := b.bot.Send(reply); err != nil {
		log.Error().Err(err).Msg("Failed to send command reply")
	}
}

func (b *Bridge) cmdAuth(ctx context.Context, msg *tgbotapi.Message) (string, bool, error) {
	user := msg.From
	if user == nil {
		return "", false, fmt.Errorf("No user.")
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		status := "You have not linked your mastodon account yet."
		if login, err := b.accounts.Login(ctx, user.ID); err == nil {
			status = fmt.Sprintf("You have already linked your mastodon account for domain '%s'.", login.Domain())
		}
		return "", false, fmt.Errorf("%s\n\nformat: /auth <domain or auth-code>", status)
	}

	b.log.Info().Int64("user_id", user.ID).Msg("User trying to auth mastodon")

	if !b.accounts.HasSession(user.ID) {
		// First step: the argument is a domain.
		domain := arg
		authURL, err := b.accounts.BeginAuth(ctx, user.ID, domain)
		if err != nil {
			b.log.Error().Err(err).Str("domain", domain).Msg("Failed to begin authorization")
			return "", false, fmt.Errorf("Failed to login mastodon for domain '%s'.\n\n%v", domain, err)
		}
		text := fmt.Sprintf("Please click this link to authorize:\n\n%s\n\nThen send back the auth code with command /auth.", authURL)
		return text, true, nil
	}

	// Second step: the argument is the auth code.
	domain := b.accounts.SessionDomain(user.ID)
	if _, err := b.accounts.CompleteAuth(ctx, user.ID, arg); err != nil {
		b.log.Error().Err(err).Str("domain", domain).Msg("Failed to complete authorization")
		return "", false, fmt.Errorf("Failed to authorize for domain '%s'.\n\n%v\n\nPlease send /auth <domain> to restart authorization.", domain, err)
	}

	b.log.Info().Int64("user_id", user.ID).Str("domain", domain).Msg("User authorized")
	return "Authorized successfully.", false, nil
}

func (b *Bridge) cmdRevoke(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	user := msg.From
	if user == nil {
		return "", fmt.Errorf("No user.")
	}

	login, err := b.accounts.Login(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("You have not linked your mastodon account yet.\n\nUsing /auth command to link one.")
	}

	b.log.Info().Int64("user_id", user.ID).Msg("User trying to revoke mastodon auth")
	if err := b.accounts.Revoke(ctx, login); err != nil {
		b.log.Error().Err(err).Str("domain", login.Domain()).Msg("Failed to revoke auth")
		return "", fmt.Errorf("Failed to revoke mastodon auth for domain '%s'.\n\n%v", login.Domain(), err)
	}

	b.log.Info().Int64("user_id", user.ID).Str("domain", login.Domain()).Msg("User revoked mastodon auth")
	return "Revoked successfully.", nil
}

func (b *Bridge) cmdPost(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	user := msg.From
	if user == nil {
		return "", fmt.Errorf("No user.")
	}

	args, err := parsePostArgs(msg.CommandArguments())
	if err != nil {
		return "", fmt.Errorf("%v\n\n%s", err, postUsage)
	}
	if args.Help {
		return postUsage, nil
	}

	target := msg.ReplyToMessage
	if target == nil {
		return "", fmt.Errorf("You should reply to a message to be synchronized to mastodon.")
	}

	login, err := b.accounts.Login(ctx, user.ID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", user.ID).Msg("User login mastodon failed")
		return "", fmt.Errorf("Please use /auth to link your mastodon account first.")
	}

	b.log.Info().Int64("user_id", user.ID).Msg("User trying to post on mastodon")

	mediaSet, err := b.resolveMedia(ctx, target)
	if err != nil {
		return "", fmt.Errorf("Failed to post status on mastodon.\n\n%v", err)
	}

	progress := newProgressMessage(b.sender, b.log, msg.Chat.ID, msg.MessageID, "Synchronizing...")
	defer progress.Close()

	permalink, err := b.publisher.Publish(ctx, &publish.Request{
		Media:      mediaSet,
		Body:       composeBody(target, mediaSet),
		Account:    login,
		Progress:   progress,
		Visibility: args.Visibility,
		Sensitive:  args.Sensitive,
	})
	if err != nil {
		return "", fmt.Errorf("Failed to post status on mastodon.\n\n%v", err)
	}

	return fmt.Sprintf("Synchronized successfully.\n\n%s", permalink), nil
}

func (b *Bridge) cmdBroadcast(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	user := msg.From
	if user == nil {
		return "", fmt.Errorf("No user.")
	}
	if b.cfg.Telegram.AdminUserID == 0 || user.ID != b.cfg.Telegram.AdminUserID {
		b.log.Warn().Int64("user_id", user.ID).Msg("Unauthorized broadcast attempt")
		return "", nil
	}

	content := strings.TrimSpace(msg.CommandArguments())
	if content == "" {
		return "", fmt.Errorf("Content cannot be empty.")
	}

	userIDs, err := b.accountStore.ListUserIDs(ctx)
	if err != nil {
		return "", err
	}

	progress := newProgressMessage(b.sender, b.log, msg.Chat.ID, msg.MessageID, "Broadcasting...")
	progress.Keep()
	defer progress.Close()

	for _, id := range userIDs {
		status := "succeeded"
		if _, err := b.sender.sendReply(id, 0, content); err != nil {
			status = fmt.Sprintf("failed (%v)", err)
		}
		progress.Update(fmt.Sprintf("Broadcast to user '%d' %s.", id, status), true)
	}
	return "", nil
}

// composeBody builds the post body: the caption or text of the logical post
// plus a source footer linking back to the origin when it is public.
func composeBody(target *tgbotapi.Message, mediaSet *media.Set) *tgtext.Text {
	caption, entities := mediaSet.Caption()
	body := tgtext.New(caption, entities)

	if url := messagePublicURL(target.Chat, target.MessageID); url != "" {
		body.AppendText("\n\nfrom ")
		body.AppendTextLinkFallback(chatDisplayName(target.Chat), url)
	}
	return body
}

// chatDisplayName mirrors how Telegram titles the chat itself.
func chatDisplayName(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	switch {
	case chat.FirstName != "" && chat.LastName != "":
		return chat.FirstName + " " + chat.LastName
	case chat.FirstName != "":
		return chat.FirstName
	case chat.LastName != "":
		return chat.LastName
	}
	return "Untitled Chat"
}

// messagePublicURL returns the t.me link of a message in a public chat, or
// "" when the chat has no public username.
func messagePublicURL(chat *tgbotapi.Chat, msgID int) string {
	if chat.UserName == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", chat.UserName, msgID)
}
