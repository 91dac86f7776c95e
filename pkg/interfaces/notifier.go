package interfaces

import "context"

// Message is a plain-text notification addressed to site managers.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Notifier delivers manager notifications such as missing reverse id reports.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
