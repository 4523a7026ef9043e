// Package notification turns committed domain events into emails for the
// order creator. Everything here is post-commit side effect: a failed email
// is logged and never reaches the cascade.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"logistica_backend/internal/email"
	"logistica_backend/internal/events"
	usersrepo "logistica_backend/internal/users/repository"
	"logistica_backend/platform/config"
	"logistica_backend/platform/logger"
)

// UserDirectory is the lookup the notifier needs to resolve recipients.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (usersrepo.User, error)
}

// Module subscribes to workflow events and emails the people involved.
type Module struct {
	sender email.Sender
	users  UserDirectory
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, users UserDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, users: users, cfg: cfg, log: log}
}

// Register subscribes the module's handlers on the event bus.
func (m *Module) Register(bus events.Bus) {
	bus.Subscribe(events.SectorCompleted{}.EventName(), events.HandlerFunc(m.onSectorCompleted))
	bus.Subscribe(events.ServiceOrderFinalized{}.EventName(), events.HandlerFunc(m.onOrderFinalized))
}

func (m *Module) onSectorCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SectorCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	user, err := m.users.GetByID(ctx, e.CreatedByID)
	if err != nil {
		return fmt.Errorf("resolve order creator: %w", err)
	}

	subject, body := email.SectorCompleted(user.Name, e.Code, e.Sector, m.cfg.GetAppBaseURL())
	return m.send(ctx, user, subject, body)
}

func (m *Module) onOrderFinalized(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ServiceOrderFinalized)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	user, err := m.users.GetByID(ctx, e.CreatedByID)
	if err != nil {
		return fmt.Errorf("resolve order creator: %w", err)
	}

	subject, body := email.OrderFinalized(user.Name, e.Code, m.cfg.GetAppBaseURL())
	return m.send(ctx, user, subject, body)
}

func (m *Module) send(ctx context.Context, user usersrepo.User, subject, body string) error {
	err := m.sender.Send(ctx, email.Message{
		To:      user.Email,
		ToName:  user.Name,
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		m.log.Error("notification email failed",
			"to", user.Email, "subject", subject, "error", err.Error())
		return err
	}
	return nil
}
