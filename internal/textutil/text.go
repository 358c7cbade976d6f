package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses whitespace runs (including NBSP) to single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CleanLines is CleanText applied per line, dropping blank lines.
// Line structure matters to the extractor, so it is kept.
func CleanLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if ln = CleanText(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

func LooksLikeHTML(s string) bool {
	ls := strings.ToLower(s)
	for _, marker := range []string{"<html", "<body", "<div", "<p>", "<p ", "<br", "<table", "<a "} {
		if strings.Contains(ls, marker) {
			return true
		}
	}
	return false
}

var blockTags = "p, div, br, tr, li, h1, h2, h3, h4, h5, h6, table, section, article"

// HTMLToText renders an HTML body as plain text with one line per block element.
func HTMLToText(htmlBody string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, head").Remove()
	doc.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AfterHtml("\n")
	})
	return CleanLines(doc.Text()), nil
}

// PlainBody returns body unchanged unless it looks like HTML, in which case
// it is converted. Conversion failures fall back to the raw body.
func PlainBody(body string) string {
	if !LooksLikeHTML(body) {
		return body
	}
	txt, err := HTMLToText(body)
	if err != nil {
		return body
	}
	return txt
}
