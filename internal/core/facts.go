package core

import (
	"net/mail"
	"strings"
	"time"
)

// PartPredicate reports whether a part qualifies as the candidate attachment
type PartPredicate func(Part) bool

// PDFPartPredicates select the candidate attachment part. A part must satisfy
// every predicate; the first such part in provider order wins.
var PDFPartPredicates = []PartPredicate{
	func(p Part) bool { return p.Filename != "" },
	func(p Part) bool { return strings.Contains(p.Filename, ".pdf") },
}

// SelectPart returns the first part satisfying all predicates
func SelectPart(parts []Part, predicates []PartPredicate) (Part, bool) {
	for _, part := range parts {
		if matchesAll(part, predicates) {
			return part, true
		}
	}
	return Part{}, false
}

func matchesAll(part Part, predicates []PartPredicate) bool {
	for _, pred := range predicates {
		if !pred(part) {
			return false
		}
	}
	return true
}

// ExtractFacts pulls the normalized fields out of a message. The second
// return value is false when the fact set is incomplete and the message
// should be dropped.
func ExtractFacts(raw *RawMessage) (MessageFacts, bool) {
	if raw == nil {
		return MessageFacts{}, false
	}

	facts := MessageFacts{
		MessageID: raw.ID,
		Subject:   firstHeader(raw.Headers, "Subject"),
		From:      firstHeader(raw.Headers, "From"),
		To:        strings.Join(allHeaders(raw.Headers, "To"), ","),
	}

	if sentAt, ok := parseSentAt(firstHeader(raw.Headers, "Date")); ok {
		facts.SentAt = sentAt
	}

	if part, ok := SelectPart(raw.Parts, PDFPartPredicates); ok {
		facts.AttachmentFileName = part.Filename
		facts.AttachmentID = part.AttachmentID
	}

	return facts, facts.Complete()
}

// firstHeader matches names case-sensitively
func firstHeader(headers []Header, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

func allHeaders(headers []Header, name string) []string {
	var values []string
	for _, h := range headers {
		if h.Name == name {
			values = append(values, h.Value)
		}
	}
	return values
}

var fallbackDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

func parseSentAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := mail.ParseDate(value); err == nil {
		return t.UTC(), true
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
