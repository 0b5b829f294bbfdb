// Copyright 2024-2026 Aiku AI

package bridge

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type senderCall struct {
	op     string
	chatID int64
	text   string
}

type mockSender struct {
	calls   []senderCall
	sendErr error
	// failChat makes sends to this chat fail while others succeed.
	failChat int64
	nextID   int
}

func (m *mockSender) sendReply(chatID int64, replyTo int, text string) (int, error) {
	m.calls = append(m.calls, senderCall{op: "send", chatID: chatID, text: text})
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	if m.failChat != 0 && chatID == m.failChat {
		return 0, errors.New("blocked by user")
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockSender) editText(chatID int64, messageID int, text string) error {
	m.calls = append(m.calls, senderCall{op: "edit", text: text})
	return nil
}

func (m *mockSender) deleteMessage(chatID int64, messageID int) error {
	m.calls = append(m.calls, senderCall{op: "delete"})
	return nil
}

func TestProgressMessageSendThenEdit(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Synchronizing...")

	progress.Report("uploading media (1/1)")
	progress.Report("publishing status")

	if len(sender.calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(sender.calls))
	}
	if sender.calls[0].op != "send" {
		t.Errorf("first call: got %q, want send", sender.calls[0].op)
	}
	if sender.calls[0].text != "Synchronizing...\n\n- uploading media (1/1)" {
		t.Errorf("first text: got %q", sender.calls[0].text)
	}
	if sender.calls[1].op != "edit" {
		t.Errorf("second call: got %q, want edit", sender.calls[1].op)
	}
	want := "Synchronizing...\n\n- uploading media (1/1) done\n- publishing status"
	if sender.calls[1].text != want {
		t.Errorf("second text: got %q, want %q", sender.calls[1].text, want)
	}
}

func TestProgressMessageUnsavedStepIsReplaced(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Broadcasting...")

	progress.Update("contacting user 1", false)
	progress.Update("contacting user 2", false)

	if len(sender.calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(sender.calls))
	}
	want := "Broadcasting...\n\n- contacting user 2"
	if sender.calls[1].text != want {
		t.Errorf("unsaved step must be replaced: got %q, want %q", sender.calls[1].text, want)
	}
}

func TestProgressMessageUnsavedThenSaved(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Working...")

	progress.Update("step one", false)
	progress.Update("step two", true)

	want := "Working...\n\n- step one done\n- step two"
	if sender.calls[1].text != want {
		t.Errorf("unsaved step must be promoted to history: got %q, want %q", sender.calls[1].text, want)
	}
}

func TestProgressMessageCloseDeletes(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Synchronizing...")

	progress.Report("publishing status")
	progress.Close()

	last := sender.calls[len(sender.calls)-1]
	if last.op != "delete" {
		t.Errorf("Close must delete: got %q", last.op)
	}
}

func TestProgressMessageKeepFinalizes(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Broadcasting...")

	progress.Update("user 1 succeeded", true)
	progress.Keep()
	progress.Close()

	last := sender.calls[len(sender.calls)-1]
	if last.op != "edit" {
		t.Errorf("kept message must be finalized by edit: got %q", last.op)
	}
	want := "Broadcasting...\n\n- user 1 succeeded done\n"
	if last.text != want {
		t.Errorf("finalized text: got %q, want %q", last.text, want)
	}
}

func TestProgressMessageCloseWithoutSend(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Synchronizing...")

	progress.Close()
	if len(sender.calls) != 0 {
		t.Errorf("Close before any update must be a no-op, got %v", sender.calls)
	}
}

func TestProgressMessageSendFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	sender := &mockSender{sendErr: errors.New("network down")}
	progress := newProgressMessage(sender, zerolog.Nop(), 1, 10, "Synchronizing...")

	progress.Report("uploading media (1/1)")
	progress.Report("publishing status")
	progress.Close()

	// Each failed send retries creation; no edit or delete may target a
	// message that was never created.
	for _, call := range sender.calls {
		if call.op != "send" {
			t.Errorf("unexpected %q call after failed send", call.op)
		}
	}
}
