package app

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/atanenl/portabase-go/pkg/portabase"
)

const maxSummaryLen = 200

// Describe renders err as a single line for humans. Remote errors are reduced
// to kind, status and a short body summary; HTML error pages collapse to their
// title or visible text.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *portabase.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if apiErr.StatusCode == 0 {
		return err.Error()
	}

	msg := fmt.Sprintf("%s (status %d)", apiErr.Kind, apiErr.StatusCode)
	if apiErr.Message != "" {
		msg += ": " + apiErr.Message
	}
	if apiErr.Err != nil {
		msg += ": " + apiErr.Err.Error()
	}
	if summary := summarizeBody(apiErr.Body); summary != "" {
		msg += ": " + summary
	}
	return msg
}

func summarizeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if looksLikeHTML(trimmed) {
		if s := htmlSummary(trimmed); s != "" {
			return truncate(s)
		}
	}
	return truncate(strings.Join(strings.Fields(string(trimmed)), " "))
}

func looksLikeHTML(body []byte) bool {
	lower := bytes.ToLower(body[:min(len(body), 64)])
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}

func htmlSummary(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// truncate cuts s to at most maxSummaryLen bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	cut := maxSummaryLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
