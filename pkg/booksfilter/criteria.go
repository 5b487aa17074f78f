// Package booksfilter validates and normalizes the query parameters accepted
// by the best-sellers endpoint into upstream-ready filter criteria.
package booksfilter

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Query parameter names accepted on the inbound endpoint.
const (
	ParamAuthor = "author"
	ParamISBN   = "isbn[]"
	ParamOffset = "offset"
	ParamTitle  = "title"
)

// Field constraints. The offset step matches the upstream API's fixed page size.
const (
	MaxAuthorLen = 32
	MaxTitleLen  = 128
	MaxISBNs     = 2
	OffsetStep   = 20
)

// Criteria is the normalized, validated set of filter parameters forwarded
// upstream. Absent fields are nil/empty and are not sent upstream at all.
// Construct it only via Parse; a Criteria in hand has passed every constraint.
type Criteria struct {
	Author *string
	Title  *string
	ISBNs  []string
	Offset *int
}

// QueryValues renders the criteria as upstream query parameters: only present
// fields, ISBNs rejoined with ";", offset as a decimal string.
func (c Criteria) QueryValues() url.Values {
	v := url.Values{}
	if c.Author != nil {
		v.Set("author", *c.Author)
	}
	if len(c.ISBNs) > 0 {
		v.Set("isbn", strings.Join(c.ISBNs, ";"))
	}
	if c.Offset != nil {
		v.Set("offset", strconv.Itoa(*c.Offset))
	}
	if c.Title != nil {
		v.Set("title", *c.Title)
	}
	return v
}

// Parse validates raw query parameters and produces normalized Criteria.
// On failure it returns the per-field messages; each field is evaluated
// independently and a field's errors do not mask another field's.
// Unrecognized parameters are ignored.
func Parse(values url.Values) (Criteria, ValidationErrors) {
	var criteria Criteria
	errs := ValidationErrors{}

	if values.Has(ParamAuthor) {
		author := values.Get(ParamAuthor)
		if utf8.RuneCountInString(author) > MaxAuthorLen {
			errs.add(FieldAuthor, "Ensure this field has no more than 32 characters.")
		} else {
			criteria.Author = &author
		}
	}

	if raw, ok := values[ParamISBN]; ok {
		// The repeatable isbn[] values travel upstream as a single
		// ";"-joined parameter, so entries are validated in that form.
		entries := strings.Split(strings.Join(raw, ";"), ";")
		if msg := validateISBNEntries(entries); msg != "" {
			errs.add(FieldISBN, msg)
		} else {
			criteria.ISBNs = entries
		}
	}

	if values.Has(ParamOffset) {
		offset, msgs := validateOffset(values.Get(ParamOffset))
		if len(msgs) > 0 {
			errs.add(FieldOffset, msgs...)
		} else {
			criteria.Offset = &offset
		}
	}

	if values.Has(ParamTitle) {
		title := values.Get(ParamTitle)
		if utf8.RuneCountInString(title) > MaxTitleLen {
			errs.add(FieldTitle, "Ensure this field has no more than 128 characters.")
		} else {
			criteria.Title = &title
		}
	}

	if len(errs) > 0 {
		return Criteria{}, errs
	}
	return criteria, nil
}

// validateISBNEntries returns the first violated rule - the entry-count check
// masks the per-entry checks, and the first bad entry masks the rest.
func validateISBNEntries(entries []string) string {
	if len(entries) > MaxISBNs {
		return "Ensure up to 2 ISBNs are provided."
	}
	for _, isbn := range entries {
		if len(isbn) != 10 && len(isbn) != 13 {
			return "Ensure each ISBN is either 10 or 13 characters long."
		}
		if !digitsOnly(isbn) {
			return "Ensure each ISBN only contains digits."
		}
	}
	return ""
}

// validateOffset collects every violated rule; the step check runs before the
// minimum check and both messages may appear together.
func validateOffset(raw string) (int, []string) {
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []string{"A valid integer is required."}
	}

	var msgs []string
	if offset%OffsetStep != 0 {
		msgs = append(msgs, "Ensure this value is a multiple of 20.")
	}
	if offset < 0 {
		msgs = append(msgs, "Ensure this value is greater than or equal to 0.")
	}
	return offset, msgs
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
