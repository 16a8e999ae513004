package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"rentdesk/internal/config"
	"rentdesk/internal/connectors"
)

// Connector reads a Gmail mailbox through the REST API. It mirrors the
// IMAP session semantics: listing never marks anything read, MarkSeen
// removes the UNREAD label per message.
type Connector struct {
	cfg config.Config
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}
	return &Connector{cfg: cfg}, nil
}

func (c *Connector) Open(ctx context.Context) (connectors.Session, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     c.cfg.GmailClientID,
		ClientSecret: c.cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  c.cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailModifyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &session{service: svc, mailbox: c.cfg.Mailbox}, nil
}

type session struct {
	service *gmail.Service
	mailbox string
}

func (s *session) SearchUnread(sender string) ([]string, error) {
	query := "is:unread"
	if sender != "" {
		query += " from:" + sender
	}

	resp, err := s.service.Users.Messages.List("me").LabelIds(s.mailbox).Q(query).MaxResults(100).Do()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		if ref.Id != "" {
			out = append(out, ref.Id)
		}
	}
	return out, nil
}

func (s *session) Fetch(ids []string) ([]connectors.FetchedMessage, error) {
	out := make([]connectors.FetchedMessage, 0, len(ids))
	for _, id := range ids {
		rawResp, err := s.service.Users.Messages.Get("me", id).Format("raw").Do()
		if err != nil {
			return nil, err
		}
		metaResp, err := s.service.Users.Messages.Get("me", id).Format("metadata").MetadataHeaders("Subject", "From", "Date").Do()
		if err != nil {
			return nil, err
		}
		if rawResp.Raw == "" {
			continue
		}

		rawBytes, err := decodeBase64URL(rawResp.Raw)
		if err != nil {
			return nil, err
		}

		headers := map[string]string{}
		if metaResp.Payload != nil {
			for _, h := range metaResp.Payload.Headers {
				headers[strings.ToLower(h.Name)] = h.Value
			}
		}

		received := time.Now().UTC()
		if dateHeader := headers["date"]; dateHeader != "" {
			if t, err := mailDate(dateHeader); err == nil {
				received = t.UTC()
			}
		}

		out = append(out, connectors.FetchedMessage{
			UID:        id,
			From:       headers["from"],
			Subject:    headers["subject"],
			ReceivedAt: received,
			Raw:        rawBytes,
		})
	}
	return out, nil
}

func (s *session) MarkSeen(id string) error {
	_, err := s.service.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	return err
}

func (s *session) Close() error { return nil }

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}

func mailDate(value string) (time.Time, error) {
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}
