package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"rentdesk/internal/config"
	"rentdesk/internal/connectors"
)

type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	mailbox  string
	timeout  time.Duration
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		mailbox:  cfg.Mailbox,
		timeout:  time.Duration(cfg.IMAPTimeoutSec) * time.Second,
	}, nil
}

// Open dials, authenticates and selects the configured mailbox. The
// returned session must be closed on every exit path of the cycle.
func (c *Connector) Open(ctx context.Context) (connectors.Session, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	dialer := &net.Dialer{Timeout: c.timeout}

	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	client.Timeout = c.timeout

	if err := client.Login(c.user, c.password); err != nil {
		_ = client.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := client.Select(c.mailbox, false); err != nil {
		_ = client.Logout()
		return nil, fmt.Errorf("imap select %s: %w", c.mailbox, err)
	}

	_ = ctx
	return &session{client: client}, nil
}

type session struct {
	client *imapclient.Client
}

func (s *session) SearchUnread(sender string) ([]string, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if sender != "" {
		criteria.Header = textproto.MIMEHeader{}
		criteria.Header.Add("From", sender)
	}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		out = append(out, strconv.FormatUint(uint64(uid), 10))
	}
	return out, nil
}

func (s *session) Fetch(ids []string) ([]connectors.FetchedMessage, error) {
	uids, err := parseUIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	// BODY.PEEK keeps the unread flag untouched; it is flipped only by
	// MarkSeen after a successful write.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(uids))
	fetchDone := make(chan error, 1)
	go func() { fetchDone <- s.client.UidFetch(seqset, items, messages) }()

	out := make([]connectors.FetchedMessage, 0, len(uids))
	for msg := range messages {
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}

		subject := ""
		from := ""
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
			from = formatAddresses(msg.Envelope.From)
		}

		received := time.Now().UTC()
		if !msg.InternalDate.IsZero() {
			received = msg.InternalDate.UTC()
		}

		out = append(out, connectors.FetchedMessage{
			UID:        strconv.FormatUint(uint64(msg.Uid), 10),
			From:       from,
			Subject:    subject,
			ReceivedAt: received,
			Raw:        raw,
		})
	}

	if err := <-fetchDone; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *session) MarkSeen(id string) error {
	uids, err := parseUIDs([]string{id})
	if err != nil {
		return err
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	return s.client.UidStore(seqset, item, flags, nil)
}

func (s *session) Close() error {
	return s.client.Logout()
}

func parseUIDs(ids []string) ([]uint32, error) {
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		parsed, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad imap uid %q: %w", id, err)
		}
		out = append(out, uint32(parsed))
	}
	return out, nil
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(strings.Join([]string{a.MailboxName, a.HostName}, "@"), "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
