// Copyright 2024-2026 Aiku AI

package bridge

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// messageSender is the narrow Telegram surface the progress message needs.
// Tests inject a mock instead of a live bot.
type messageSender interface {
	sendReply(chatID int64, replyTo int, text string) (int, error)
	editText(chatID int64, messageID int, text string) error
	deleteMessage(chatID int64, messageID int) error
}

// botSender is the production implementation over the bot API.
type botSender struct {
	bot *tgbotapi.BotAPI
}

func (b *botSender) sendReply(chatID int64, replyTo int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	sent, err := b.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *botSender) editText(chatID int64, messageID int, text string) error {
	_, err := b.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (b *botSender) deleteMessage(chatID int64, messageID int) error {
	_, err := b.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// progressMessage mirrors pipeline progress into a Telegram reply: created
// on the first update, edited in place afterwards, and deleted on Close
// unless kept. Every send is best effort; failures are logged and never
// propagate into the pipeline.
type progressMessage struct {
	sender  messageSender
	log     zerolog.Logger
	chatID  int64
	replyTo int
	title   string

	keep        bool
	history     []string
	lastUnsaved string
	msgID       int
}

func newProgressMessage(sender messageSender, log zerolog.Logger, chatID int64, replyTo int, title string) *progressMessage {
	return &progressMessage{
		sender:  sender,
		log:     log,
		chatID:  chatID,
		replyTo: replyTo,
		title:   title,
	}
}

// Report implements publish.ProgressReporter.
func (p *progressMessage) Report(step string) {
	p.Update(step, true)
}

// Update displays status as the current step. When saveToHistory is set the
// step stays visible as a "done" line under later updates; otherwise the
// next update replaces it.
func (p *progressMessage) Update(status string, saveToHistory bool) {
	if saveToHistory && p.lastUnsaved != "" {
		p.history = append(p.history, p.lastUnsaved)
		p.lastUnsaved = ""
	}

	text := p.format(status)
	if p.msgID == 0 {
		msgID, err := p.sender.sendReply(p.chatID, p.replyTo, text)
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to send progress message")
		} else {
			p.msgID = msgID
		}
	} else if err := p.sender.editText(p.chatID, p.msgID, text); err != nil {
		p.log.Warn().Err(err).Msg("Failed to edit progress message")
	}

	if saveToHistory {
		p.history = append(p.history, status)
	} else {
		p.lastUnsaved = status
	}
}

// Keep leaves the progress message in place when Close is called, e.g. so a
// broadcast result list stays readable.
func (p *progressMessage) Keep() {
	p.keep = true
}

// Close deletes the progress message, or finalizes its text when kept.
func (p *progressMessage) Close() {
	if p.msgID == 0 {
		return
	}
	if !p.keep {
		if err := p.sender.deleteMessage(p.chatID, p.msgID); err != nil {
			p.log.Warn().Err(err).Msg("Failed to delete progress message")
		}
		return
	}
	if err := p.sender.editText(p.chatID, p.msgID, p.format("")); err != nil {
		p.log.Warn().Err(err).Msg("Failed to finalize progress message")
	}
}

func (p *progressMessage) format(current string) string {
	var b strings.Builder
	b.WriteString(p.title)
	b.WriteString("\n\n")
	for _, item := range p.history {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString(" done\n")
	}
	if current != "" {
		b.WriteString("- ")
		b.WriteString(current)
	}
	return b.String()
}
