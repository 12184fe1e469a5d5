package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxTextLen = 4096

// E.164: + followed by digits only
var e164Pattern = regexp.MustCompile(`^\+\d+$`)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every field failure found in a payload so
// the caller gets one 422 with the full picture.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// webhookEnvelope uses pointers so a missing field and an empty field
// are distinguishable.
type webhookEnvelope struct {
	MessageID *string `json:"message_id"`
	From      *string `json:"from"`
	To        *string `json:"to"`
	TS        *string `json:"ts"`
	Text      *string `json:"text"`
}

// ParseWebhookMessage turns normalized JSON bytes into a Message or a
// *ValidationError. It is pure: no I/O, same input same outcome. A body
// that is not valid JSON at all lands in the same error type, under the
// "body" pseudo-field.
func ParseWebhookMessage(data []byte) (*Message, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		verr := &ValidationError{}
		verr.add("body", "malformed JSON: "+err.Error())
		return nil, verr
	}

	verr := &ValidationError{}

	if env.MessageID == nil || *env.MessageID == "" {
		verr.add("message_id", "is required and must be non-empty")
	}
	checkMSISDN(verr, "from", env.From)
	checkMSISDN(verr, "to", env.To)
	checkTimestamp(verr, env.TS)
	if env.Text != nil && utf8.RuneCountInString(*env.Text) > MaxTextLen {
		verr.add("text", "exceeds maximum length of 4096 characters")
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	return &Message{
		MessageID: *env.MessageID,
		From:      *env.From,
		To:        *env.To,
		TS:        *env.TS,
		Text:      env.Text,
	}, nil
}

func checkMSISDN(verr *ValidationError, field string, v *string) {
	if v == nil || *v == "" {
		verr.add(field, "is required and must be non-empty")
		return
	}
	if !e164Pattern.MatchString(*v) {
		verr.add(field, "must be in E.164 format: + followed by digits only")
	}
}

func checkTimestamp(verr *ValidationError, v *string) {
	if v == nil || *v == "" {
		verr.add("ts", "is required and must be non-empty")
		return
	}
	if !strings.HasSuffix(*v, "Z") {
		verr.add("ts", "must be UTC and end with Z")
		return
	}
	if _, err := time.Parse(time.RFC3339, *v); err != nil {
		verr.add("ts", "invalid ISO-8601 timestamp")
	}
}
