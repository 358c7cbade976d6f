package emailpoll

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"havenjob-engine/internal/ingest"
)

const maxPartBytes = 1 << 20

// ParseMessage turns a raw RFC 822 message into an InboundEmail. The
// recipient is the first Delivered-To address, falling back to To.
// Attachments are skipped; the first text/plain and text/html inline parts
// become Body and HTMLBody.
func ParseMessage(raw []byte) (ingest.InboundEmail, error) {
	var out ingest.InboundEmail
	if len(raw) == 0 {
		return out, errors.New("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return out, fmt.Errorf("read message: %w", err)
	}

	h := mr.Header
	if s, err := h.Subject(); err == nil {
		out.Subject = strings.TrimSpace(s)
	} else {
		out.Subject = strings.TrimSpace(h.Get("Subject"))
	}
	out.Sender = firstAddress(h, "From")
	out.Recipient = firstAddress(h, "Delivered-To")
	if out.Recipient == "" {
		out.Recipient = firstAddress(h, "To")
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return out, fmt.Errorf("read part: %w", err)
		}
		if p == nil {
			continue
		}

		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		b, err := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		if err != nil {
			return out, fmt.Errorf("read part body: %w", err)
		}

		switch {
		case ct == "text/html" && out.HTMLBody == "":
			out.HTMLBody = string(b)
		case (ct == "text/plain" || ct == "") && out.Body == "":
			out.Body = string(b)
		}
	}
	return out, nil
}

func firstAddress(h mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err == nil && len(addrs) > 0 {
		return strings.ToLower(addrs[0].Address)
	}
	v := strings.TrimSpace(h.Get(key))
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.Trim(v, "<> "))
}
