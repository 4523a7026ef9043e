package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"logistica_backend/internal/email"
	"logistica_backend/internal/events"
	usersrepo "logistica_backend/internal/users/repository"
	"logistica_backend/platform/apperr"
	"logistica_backend/platform/logger"
)

type fakeSender struct {
	sent []email.Message
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeDirectory struct {
	users map[uuid.UUID]usersrepo.User
}

func (f *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (usersrepo.User, error) {
	user, ok := f.users[id]
	if !ok {
		return usersrepo.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

type fakeConfig struct{}

func (fakeConfig) GetAppBaseURL() string { return "https://backoffice.example" }

func TestSectorCompletedEmailsOrderCreator(t *testing.T) {
	creator := usersrepo.User{
		ID:    uuid.New(),
		Name:  "Ana",
		Email: "ana@example.com",
	}
	sender := &fakeSender{}
	module := NewModule(sender,
		&fakeDirectory{users: map[uuid.UUID]usersrepo.User{creator.ID: creator}},
		fakeConfig{}, logger.New("development"))

	err := module.onSectorCompleted(context.Background(), events.SectorCompleted{
		BaseEvent:      events.NewBaseEvent(),
		ServiceOrderID: uuid.New(),
		Code:           "OS-2026-0042",
		Sector:         "OPERACOES",
		CreatedByID:    creator.ID,
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != creator.Email {
		t.Errorf("email should go to the creator, got %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "OS-2026-0042") {
		t.Errorf("subject should carry the order code, got %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "OPERACOES") {
		t.Error("body should name the completed sector")
	}
}

func TestOrderFinalizedUnknownCreatorFails(t *testing.T) {
	sender := &fakeSender{}
	module := NewModule(sender, &fakeDirectory{users: map[uuid.UUID]usersrepo.User{}},
		fakeConfig{}, logger.New("development"))

	err := module.onOrderFinalized(context.Background(), events.ServiceOrderFinalized{
		BaseEvent:      events.NewBaseEvent(),
		ServiceOrderID: uuid.New(),
		Code:           "OS-2026-0001",
		CreatedByID:    uuid.New(),
	})
	if err == nil {
		t.Fatal("expected lookup failure to surface")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no email should be sent, got %d", len(sender.sent))
	}
}
