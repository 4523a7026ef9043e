// Package email provides the outbound mail boundary: a narrow Sender
// interface, an SMTP implementation, and the message templates the
// notification and scheduler modules render.
package email

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
