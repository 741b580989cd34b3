// Package catalog keeps the subjects that paper URLs are generated for.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Subject is a single examination subject
type Subject struct {
	Code   string      `json:"-"`
	Name   string      `json:"name"`
	Papers papers.List `json:"papers"`
}

// Catalog maps subject codes to subjects
type Catalog map[string]Subject

// ValidationError is returned when a subject cannot be added
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid subject %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == papers.ErrInvalidInput
}

// ParsePapers parses "1:Pure 1, 4:Mechanics" into a paper list. Parts
// without a colon or a paper number are skipped.
func ParsePapers(s string) papers.List {
	list := papers.List{}
	for part := range strings.SplitSeq(s, ",") {
		num, desc, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		num = strings.TrimSpace(num)
		if num == "" {
			continue
		}
		list = list.Set(num, strings.TrimSpace(desc))
	}
	return list
}

// NewSubject validates the fields of a subject submission
func NewSubject(code, name, papersString string) (Subject, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return Subject{}, &ValidationError{Field: "code", Message: "must not be empty"}
	}
	if name == "" {
		return Subject{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	list := ParsePapers(papersString)
	if len(list) == 0 {
		return Subject{}, &ValidationError{Field: "papers", Message: `expected "number:description" pairs separated by commas`}
	}
	return Subject{Code: code, Name: name, Papers: list}, nil
}

// Put adds or replaces a subject
func (c Catalog) Put(s Subject) {
	c[s.Code] = s
}

// Get returns the subject with the given code
func (c Catalog) Get(code string) (Subject, bool) {
	s, ok := c[code]
	if ok {
		s.Code = code
	}
	return s, ok
}

// Sorted returns the subjects ordered by code, comparing numeric runs by value
func (c Catalog) Sorted() []Subject {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	collate.New(language.English, collate.Numeric).SortStrings(codes)

	out := make([]Subject, 0, len(codes))
	for _, code := range codes {
		s, _ := c.Get(code)
		out = append(out, s)
	}
	return out
}

// Find returns subjects whose code or name fuzzily match the query, best first
func (c Catalog) Find(query string) []Subject {
	subjects := c.Sorted()
	query = strings.TrimSpace(query)
	if query == "" {
		return subjects
	}

	targets := make([]string, len(subjects))
	for i, s := range subjects {
		targets[i] = s.Code + " " + s.Name
	}

	matches := fuzzy.Find(query, targets)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	out := make([]Subject, 0, len(matches))
	for _, m := range matches {
		out = append(out, subjects[m.Index])
	}
	return out
}
