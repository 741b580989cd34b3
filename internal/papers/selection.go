package papers

import (
	"strconv"
	"strings"
)

// DefaultYearRange is used when a form is submitted without a year range
const DefaultYearRange = "2020-2025"

// DefaultMaxYearSpan bounds how many years a single selection may cover
const DefaultMaxYearSpan = 50

// maxYearDigits keeps parsed years well inside int range
const maxYearDigits = 4

// allVariants is what the "all variants" shortcut expands to
var allVariants = []string{"1", "2", "3"}

// Selection is the form-shaped input shared by the web and CLI surfaces
type Selection struct {
	YearRange   string
	Sessions    []string
	Variants    []string
	Types       []string
	AllSessions bool
	AllVariants bool
	// Subject restricts generation to one subject code when set
	Subject string
}

// Resolved is a validated Selection, ready to be combined with a subject
type Resolved struct {
	StartYear int
	EndYear   int
	Sessions  []Session
	Variants  []string
	Types     []DocType
	Subject   string
}

// Request builds the generator request for one subject
func (r Resolved) Request(subjectCode string, list List) Request {
	return Request{
		SubjectCode: subjectCode,
		StartYear:   r.StartYear,
		EndYear:     r.EndYear,
		Papers:      list,
		Sessions:    r.Sessions,
		Variants:    r.Variants,
		Types:       r.Types,
	}
}

// Resolve validates the selection and expands its shortcuts. maxSpan limits
// the number of years covered; zero or less disables the check.
func (s Selection) Resolve(maxSpan int) (Resolved, error) {
	yearRange := strings.TrimSpace(s.YearRange)
	if yearRange == "" {
		yearRange = DefaultYearRange
	}
	start, end, err := ParseYearRange(yearRange)
	if err != nil {
		return Resolved{}, err
	}
	if maxSpan > 0 && end >= start && end-start >= maxSpan {
		return Resolved{}, &InputError{Field: "year range", Value: yearRange, Message: "covers more than " + strconv.Itoa(maxSpan) + " years"}
	}

	out := Resolved{StartYear: start, EndYear: end, Subject: strings.TrimSpace(s.Subject)}

	if s.AllSessions {
		out.Sessions = AllSessions()
	} else {
		for _, code := range dedupe(s.Sessions) {
			session, err := ParseSession(code)
			if err != nil {
				return Resolved{}, err
			}
			out.Sessions = append(out.Sessions, session)
		}
	}

	if s.AllVariants {
		out.Variants = append([]string(nil), allVariants...)
	} else {
		for _, v := range dedupe(s.Variants) {
			if !isVariant(v) {
				return Resolved{}, &InputError{Field: "variant", Value: v, Message: "must be a one or two digit number"}
			}
			out.Variants = append(out.Variants, v)
		}
	}

	types := dedupe(s.Types)
	if len(types) == 0 {
		out.Types = AllDocTypes()
	}
	for _, t := range types {
		docType, err := ParseDocType(t)
		if err != nil {
			return Resolved{}, err
		}
		out.Types = append(out.Types, docType)
	}

	return out, nil
}

// ParseYearRange parses "<start>-<end>" or a single "<year>".
// An end before the start is valid and selects no years.
func ParseYearRange(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	startStr, endStr, found := strings.Cut(s, "-")
	if !found {
		endStr = startStr
	}

	if start, err = parseYear(startStr, s); err != nil {
		return 0, 0, err
	}
	if end, err = parseYear(endStr, s); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseYear(part, whole string) (int, error) {
	part = strings.TrimSpace(part)
	if part == "" || !isDigits(part) {
		return 0, &InputError{Field: "year range", Value: whole, Message: "expected <start>-<end> with numeric years"}
	}
	if len(part) > maxYearDigits {
		return 0, &InputError{Field: "year range", Value: whole, Message: "years have at most " + strconv.Itoa(maxYearDigits) + " digits"}
	}
	year, err := strconv.Atoi(part)
	if err != nil {
		return 0, &InputError{Field: "year range", Value: whole, Message: err.Error()}
	}
	return year, nil
}

func isVariant(v string) bool {
	return len(v) >= 1 && len(v) <= 2 && isDigits(v)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// dedupe trims values and drops empties and repeats, keeping first occurrence
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
