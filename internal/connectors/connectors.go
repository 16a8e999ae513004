package connectors

import (
	"context"
	"time"
)

// FetchedMessage is one raw mail item pulled from the mailbox. Raw holds
// the full RFC 5322 message; decoding happens in the pipeline.
type FetchedMessage struct {
	UID        string
	From       string
	Subject    string
	ReceivedAt time.Time
	Raw        []byte
}

// Session is one open mailbox session. Fetching never flips the read
// flag; MarkSeen is called per message, only after a durable write.
type Session interface {
	// SearchUnread returns the ids of unread messages, optionally
	// narrowed to a sender address. An empty sender matches all.
	SearchUnread(sender string) ([]string, error)
	Fetch(ids []string) ([]FetchedMessage, error)
	MarkSeen(id string) error
	Close() error
}

type Connector interface {
	Open(ctx context.Context) (Session, error)
}
