// Package ingest runs one inbound email through trust verification,
// field extraction and the application ledger.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/textutil"
)

// InboundEmail is an email as delivered by the webhook or the IMAP poller.
type InboundEmail struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	HTMLBody  string `json:"html_body,omitempty"`
}

// Extracted mirrors domain.Extraction on the wire. Absent fields are null.
type Extracted struct {
	CompanyName *string `json:"company_name"`
	JobTitle    *string `json:"job_title"`
	DateApplied *string `json:"date_applied"`
}

type Result struct {
	Received      bool       `json:"received"`
	Verified      bool       `json:"verified"`
	Extracted     *Extracted `json:"extracted,omitempty"`
	ApplicationID string     `json:"application_id,omitempty"`

	// Created is false when ApplicationID names an existing record.
	Created bool `json:"-"`
}

type Verifier interface {
	Verify(ctx context.Context, recipient, sender string) (userID string, ok bool, err error)
}

type Extractor interface {
	Extract(subject, body string) domain.Extraction
}

type Ledger interface {
	CreateFromExtraction(ctx context.Context, userID string, ext domain.Extraction, hash *string) (domain.Application, bool, error)
}

type Pipeline struct {
	Trust     Verifier
	Extractor Extractor
	Ledger    Ledger

	// DedupByHash reports whether redeliveries are matched by content hash.
	// Nil means always.
	DedupByHash func() bool
}

// Process never reports unverified senders or incomplete extractions as
// errors. A non-nil error means a storage failure; nothing was written.
func (p *Pipeline) Process(ctx context.Context, in InboundEmail) (Result, error) {
	res := Result{Received: true}

	userID, ok, err := p.Trust.Verify(ctx, in.Recipient, in.Sender)
	if err != nil {
		return res, err
	}
	if !ok {
		log.Printf("[ingest] level=info msg=\"dropped unverified email\" recipient=%q sender=%q", in.Recipient, in.Sender)
		return res, nil
	}
	res.Verified = true

	body := in.Body
	if body == "" {
		body = in.HTMLBody
	}
	if in.Subject == "" && body == "" {
		return res, nil
	}

	ext := p.Extractor.Extract(in.Subject, textutil.PlainBody(body))
	res.Extracted = &Extracted{
		CompanyName: ext.CompanyName,
		JobTitle:    ext.JobTitle,
	}
	if ext.DateApplied != nil {
		d := ext.DateString()
		res.Extracted.DateApplied = &d
	}

	var hash *string
	if p.DedupByHash == nil || p.DedupByHash() {
		h := ContentHash(in.Subject, body)
		hash = &h
	}

	app, created, err := p.Ledger.CreateFromExtraction(ctx, userID, ext, hash)
	if err != nil {
		return res, err
	}
	if app.ID != "" {
		res.ApplicationID = app.ID
		res.Created = created
	}
	return res, nil
}

// ContentHash identifies a delivery by its subject and body as received.
func ContentHash(subject, body string) string {
	sum := sha256.Sum256([]byte(subject + "\n" + body))
	return hex.EncodeToString(sum[:])
}
