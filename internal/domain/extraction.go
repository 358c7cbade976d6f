package domain

import "time"

// NaiveDateLayout is the wire form of extracted dates (no zone).
const NaiveDateLayout = "2006-01-02T15:04:05"

// Extraction holds the fields pulled from an email. Nil means not found.
type Extraction struct {
	CompanyName *string
	JobTitle    *string
	DateApplied *time.Time

	// Confidence is reserved for a model-assisted extractor; the rule
	// extractor leaves it nil.
	Confidence *float64
}

// DateString renders DateApplied in NaiveDateLayout, or "" when absent.
func (e Extraction) DateString() string {
	if e.DateApplied == nil {
		return ""
	}
	return e.DateApplied.Format(NaiveDateLayout)
}
