package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"

	"rentdesk/internal"
	"rentdesk/internal/connectors"
)

// DecodeMessage turns a fetched raw message into a RawMessage the
// pipeline works with.
func DecodeMessage(msg connectors.FetchedMessage) (internal.RawMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw))
	if err != nil {
		return internal.RawMessage{}, fmt.Errorf("decode message %s: %w", msg.UID, err)
	}

	sender := msg.From
	if sender == "" {
		sender = env.GetHeader("From")
	}
	subject := msg.Subject
	if subject == "" {
		subject = env.GetHeader("Subject")
	}
	received := msg.ReceivedAt
	if received.IsZero() {
		received = time.Now().UTC()
	}

	out := internal.RawMessage{
		UID:        msg.UID,
		Sender:     sender,
		Subject:    subject,
		Text:       env.Text,
		HTML:       env.HTML,
		ReceivedAt: received,
	}
	for _, att := range env.Attachments {
		out.Attachments = append(out.Attachments, internal.Attachment{
			FileName: strings.TrimSpace(att.FileName),
			Content:  att.Content,
		})
	}
	return out, nil
}

// AttachmentText is the last-resort text source: when both bodies are
// empty, some vendors ship the confirmation only as an attached PDF.
func AttachmentText(msg internal.RawMessage) string {
	for _, att := range msg.Attachments {
		if !strings.HasSuffix(strings.ToLower(att.FileName), ".pdf") {
			continue
		}
		if text := pdfToText(att.Content); text != "" {
			return text
		}
	}
	return ""
}

func pdfToText(content []byte) string {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return collapseWhitespace(sb.String())
}
