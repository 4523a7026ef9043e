package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"logistica_backend/internal/email"
	"logistica_backend/platform/logger"
)

type fakeLister struct {
	tasks []OverdueTask
	err   error
}

func (f *fakeLister) ListOverdueOpen(context.Context) ([]OverdueTask, error) {
	return f.tasks, f.err
}

type fakeSender struct {
	sent    []email.Message
	failFor string
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if msg.To == f.failFor {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func overdueFor(userID uuid.UUID, name, addr, title string) OverdueTask {
	return OverdueTask{
		TaskID:    uuid.New(),
		Title:     title,
		Sector:    "OPERACOES",
		OrderCode: "OS-2026-0001",
		DueDate:   time.Now().Add(-48 * time.Hour),
		UserID:    userID,
		UserName:  name,
		UserEmail: addr,
	}
}

func TestOverdueScanSendsOneDigestPerAssignee(t *testing.T) {
	ana := uuid.New()
	bruno := uuid.New()
	lister := &fakeLister{tasks: []OverdueTask{
		overdueFor(ana, "Ana", "ana@example.com", "coleta"),
		overdueFor(ana, "Ana", "ana@example.com", "conferencia"),
		overdueFor(bruno, "Bruno", "bruno@example.com", "faturamento"),
	}}
	sender := &fakeSender{}
	h := NewHandler(lister, sender, logger.New("development"))

	if err := h.HandleOverdueScan(context.Background(), nil); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected one digest per assignee, got %d emails", len(sender.sent))
	}
	var anaMsg *email.Message
	for i := range sender.sent {
		if sender.sent[i].To == "ana@example.com" {
			anaMsg = &sender.sent[i]
		}
	}
	if anaMsg == nil {
		t.Fatal("missing digest for ana")
	}
	if !strings.Contains(anaMsg.Subject, "2") {
		t.Errorf("digest subject should count 2 tasks, got %q", anaMsg.Subject)
	}
	if !strings.Contains(anaMsg.HTML, "coleta") || !strings.Contains(anaMsg.HTML, "conferencia") {
		t.Error("digest body should list both overdue tasks")
	}
}

func TestOverdueScanContinuesPastFailedRecipient(t *testing.T) {
	ana := uuid.New()
	bruno := uuid.New()
	lister := &fakeLister{tasks: []OverdueTask{
		overdueFor(ana, "Ana", "ana@example.com", "coleta"),
		overdueFor(bruno, "Bruno", "bruno@example.com", "faturamento"),
	}}
	sender := &fakeSender{failFor: "ana@example.com"}
	h := NewHandler(lister, sender, logger.New("development"))

	err := h.HandleOverdueScan(context.Background(), nil)
	if err == nil {
		t.Fatal("failed recipient should surface for retry")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "bruno@example.com" {
		t.Fatalf("remaining recipients should still be served, got %v", sender.sent)
	}
}

func TestOverdueScanEmptyIsNoop(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(&fakeLister{}, sender, logger.New("development"))

	if err := h.HandleOverdueScan(context.Background(), nil); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no overdue tasks means no email, got %d", len(sender.sent))
	}
}
