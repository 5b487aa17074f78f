package booksfilter

import (
	"fmt"
	"strings"
)

// Field names as they appear in validation error bodies.
const (
	FieldAuthor = "author"
	FieldISBN   = "isbn"
	FieldOffset = "offset"
	FieldTitle  = "title"
)

// fieldOrder fixes the order fields are reported in. It matches the field
// declaration order of the endpoint (and, conveniently, JSON object key
// order, since encoding/json sorts map keys).
var fieldOrder = []string{FieldAuthor, FieldISBN, FieldOffset, FieldTitle}

// ValidationErrors maps a field name to the human-readable messages for every
// rule that field violated. It marshals to the caller-facing 400 body,
// e.g. {"author": ["Ensure this field has no more than 32 characters."]}.
type ValidationErrors map[string][]string

// Error implements the error interface with a deterministic field order.
func (e ValidationErrors) Error() string {
	var parts []string
	for _, field := range fieldOrder {
		if msgs, ok := e[field]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, " ")))
		}
	}
	return "invalid filter criteria: " + strings.Join(parts, "; ")
}

// Fields returns the failed field names in reporting order.
func (e ValidationErrors) Fields() []string {
	var fields []string
	for _, field := range fieldOrder {
		if _, ok := e[field]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}

func (e ValidationErrors) add(field string, msgs ...string) {
	e[field] = append(e[field], msgs...)
}
