// Package extract pulls company, job title and application date out of
// free-form email text with ordered regex rules. The first rule whose match
// passes the field's length bounds wins; nothing is scored or combined.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"havenjob-engine/internal/domain"
)

// Extractor turns an email subject and body into structured fields.
// Implementations must not fail; unknown fields are left nil.
type Extractor interface {
	Extract(subject, body string) domain.Extraction
}

type fieldRule struct {
	name string
	re   *regexp.Regexp
}

const (
	companyMin = 2
	companyMax = 200
	titleMin   = 2
	titleMax   = 255
)

var companyRules = []fieldRule{
	// "... at Acme Corp - ..." ; the name must start upper-case.
	{name: "at", re: regexp.MustCompile(`\b(?i:at)\s+([A-Z][A-Za-z0-9\s&.,\-]+?)(?:\s*[-–—]|\s+(?i:for)\s|\.|\n|$)`)},
	{name: "label", re: regexp.MustCompile(`(?i)\b(?:company|employer)\s*[:\-]\s*([A-Za-z0-9\s&.,\-]+?)(?:\n|$)`)},
	{name: "marker", re: regexp.MustCompile(`(?i)([A-Z][A-Za-z0-9 \t&.,\-]*?)\s*[-–—]\s*(?:application|position|role)`)},
}

var titleRules = []fieldRule{
	{name: "label", re: regexp.MustCompile(`(?i)\b(?:position|role|job\s*title|title)\s*[:\-]\s*([A-Za-z0-9\s&.,\-/]+?)(?:\n|$)`)},
	{name: "applied_for", re: regexp.MustCompile(`(?i)\bapplied\s+for\s+([A-Za-z0-9\s&.,\-/]+?)(?:\s+at\b|\n|$)`)},
	{name: "marker", re: regexp.MustCompile(`(?i)([A-Za-z0-9][A-Za-z0-9 \t&.,\-/]*?)\s*[-–—]\s*(?:application|position)`)},
}

// Rules is the regex-backed Extractor.
type Rules struct{}

func (Rules) Extract(subject, body string) domain.Extraction {
	return Extract(subject, body)
}

// Extract applies the company, title and date rules to subject+"\n"+body.
func Extract(subject, body string) domain.Extraction {
	text := strings.TrimSpace(subject + "\n" + body)

	var out domain.Extraction
	if text == "" {
		return out
	}
	out.CompanyName = firstValid(companyRules, text, companyMin, companyMax)
	out.JobTitle = firstValid(titleRules, text, titleMin, titleMax)
	if d, ok := extractDate(text); ok {
		out.DateApplied = &d
	}
	return out
}

func firstValid(rules []fieldRule, text string, minLen, maxLen int) *string {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		cand := strings.TrimSpace(m[1])
		n := utf8.RuneCountInString(cand)
		if n < minLen || n > maxLen {
			continue
		}
		return &cand
	}
	return nil
}
