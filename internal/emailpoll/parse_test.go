package emailpoll

import (
	"strings"
	"testing"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessagePlain(t *testing.T) {
	t.Parallel()

	raw := crlf(`Delivered-To: Me@In.HavenJob.app
To: someone-else@example.com
From: "Acme Careers" <Jobs@Acme.com>
Subject: =?UTF-8?Q?Application_at_Acme_Corp?=
Content-Type: text/plain; charset=utf-8

Position: Software Engineer
`)
	in, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Sender != "jobs@acme.com" {
		t.Fatalf("sender = %q", in.Sender)
	}
	if in.Recipient != "me@in.havenjob.app" {
		t.Fatalf("recipient = %q", in.Recipient)
	}
	if in.Subject != "Application at Acme Corp" {
		t.Fatalf("subject = %q", in.Subject)
	}
	if !strings.Contains(in.Body, "Position: Software Engineer") {
		t.Fatalf("body = %q", in.Body)
	}
}

func TestParseMessageFallsBackToTo(t *testing.T) {
	t.Parallel()

	raw := crlf(`To: Me <me@in.havenjob.app>, other@example.com
From: jobs@acme.com
Subject: Hi
Content-Type: text/plain

body
`)
	in, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Recipient != "me@in.havenjob.app" {
		t.Fatalf("recipient = %q", in.Recipient)
	}
}

func TestParseMessageMultipart(t *testing.T) {
	t.Parallel()

	raw := crlf(`To: me@in.havenjob.app
From: jobs@acme.com
Subject: Your application
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

Company: Globex=20Corporation
--inner
Content-Type: text/html; charset=utf-8

<html><body><p>Company: Globex Corporation</p></body></html>
--inner--
--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="cv.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--outer--
`)
	in, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.TrimSpace(in.Body) != "Company: Globex Corporation" {
		t.Fatalf("body = %q", in.Body)
	}
	if !strings.Contains(in.HTMLBody, "<p>Company: Globex Corporation</p>") {
		t.Fatalf("html = %q", in.HTMLBody)
	}
}

func TestParseMessageEmpty(t *testing.T) {
	t.Parallel()

	if _, err := ParseMessage(nil); err == nil {
		t.Fatalf("expected error")
	}
}
