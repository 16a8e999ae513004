package pipeline

import (
	"context"
	"fmt"
	"strings"

	"rentdesk/internal"
	"rentdesk/internal/config"
	"rentdesk/internal/connectors"
	"rentdesk/internal/fleet"
	"rentdesk/internal/storage"
)

// Poller runs one complete mailbox check: session open, unread search,
// per-message processing, session close. Transport and auth failures
// abort the cycle; anything that goes wrong with a single message is
// contained to that message.
type Poller struct {
	cfg       config.Config
	connector connectors.Connector
	resolver  *fleet.Resolver
	ingestor  *Ingestor
}

func NewPoller(db *storage.DB, cfg config.Config, connector connectors.Connector) *Poller {
	return &Poller{
		cfg:       cfg,
		connector: connector,
		resolver:  fleet.NewResolver(db),
		ingestor:  NewIngestor(db),
	}
}

func (p *Poller) PollOnce(ctx context.Context) (internal.PollResult, error) {
	result := internal.PollResult{}

	session, err := p.connector.Open(ctx)
	if err != nil {
		return result, fmt.Errorf("open mailbox: %w", err)
	}
	defer session.Close()

	ids, err := session.SearchUnread(p.cfg.TrustedSender)
	if err != nil {
		return result, fmt.Errorf("search unread: %w", err)
	}
	// Not every upstream sender is controllable: with nothing from the
	// trusted address, fall back to all unread mail. No backward scan —
	// an empty mailbox ends the cycle.
	if len(ids) == 0 && p.cfg.TrustedSender != "" {
		ids, err = session.SearchUnread("")
		if err != nil {
			return result, fmt.Errorf("search unread fallback: %w", err)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}
	if max := p.cfg.FetchMax; max > 0 && len(ids) > max {
		ids = ids[len(ids)-max:]
	}

	messages, err := session.Fetch(ids)
	if err != nil {
		return result, fmt.Errorf("fetch messages: %w", err)
	}
	result.MessagesSeen = len(messages)

	for _, fetched := range messages {
		outcome, err := p.processMessage(fetched)
		if err != nil {
			fmt.Printf("poll: message %s failed: %v\n", fetched.UID, err)
			result.Errors++
			continue
		}

		switch outcome {
		case IngestedNew:
			result.Ingested++
		default:
			result.Skipped++
		}

		// The read flag is the durable progress marker: it flips only
		// once the local write (or intentional skip) is in.
		if outcome.Durable() {
			if err := session.MarkSeen(fetched.UID); err != nil {
				fmt.Printf("poll: mark seen %s failed: %v\n", fetched.UID, err)
				result.Errors++
			}
		}
	}

	return result, nil
}

func (p *Poller) processMessage(fetched connectors.FetchedMessage) (IngestOutcome, error) {
	msg, err := DecodeMessage(fetched)
	if err != nil {
		return "", err
	}

	text := Normalize(msg)
	if text == "" {
		text = AttachmentText(msg)
	}

	res := Extract(text)
	if res.VehicleCode != nil {
		vehicle, err := p.resolver.Resolve(*res.VehicleCode)
		if err != nil {
			return "", err
		}
		if vehicle != nil {
			res.VehicleID = internal.Int64Ptr(vehicle.ID)
			if strings.TrimSpace(vehicle.Name) != "" {
				res.VehicleName = internal.StringPtr(vehicle.Name)
			}
		}
	}

	return p.ingestor.Ingest(msg, res)
}
