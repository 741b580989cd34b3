// Package report renders generated paper links as HTML, Markdown, JSON or
// terminal text.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path"
	"slices"

	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"filename": path.Base,
	"sessionURL": func(base, subject, shortCode, docType string) string {
		return papers.SessionURL(base, subject, shortCode, papers.DocType(docType))
	},
}).ParseFS(templateFS, "templates/*.html"))

// Page is everything the index page shows
type Page struct {
	Subjects  []catalog.Subject
	Results   []finder.SubjectLinks
	Submitted bool
	Form      Form
	AddForm   AddForm
	Error     string
	Notice    string
}

// Form echoes the search form back to the page
type Form struct {
	YearRange      string
	AllSessions    bool
	AllVariants    bool
	Subject        string
	SessionOptions []Option
	VariantOptions []Option
}

// AddForm echoes a rejected add-subject submission back to the page
type AddForm struct {
	Code   string
	Name   string
	Papers string
}

// Option is a single checkbox
type Option struct {
	Value   string
	Label   string
	Checked bool
}

// NewForm builds the form state for a selection. An empty year range shows
// defaultYears.
func NewForm(sel papers.Selection, defaultYears string) Form {
	form := Form{
		YearRange:   sel.YearRange,
		AllSessions: sel.AllSessions,
		AllVariants: sel.AllVariants,
		Subject:     sel.Subject,
	}
	if form.YearRange == "" {
		form.YearRange = defaultYears
	}
	for _, s := range papers.AllSessions() {
		form.SessionOptions = append(form.SessionOptions, Option{
			Value:   string(s),
			Label:   s.MonthRange(),
			Checked: slices.Contains(sel.Sessions, string(s)),
		})
	}
	for _, v := range []string{"1", "2", "3"} {
		form.VariantOptions = append(form.VariantOptions, Option{
			Value:   v,
			Label:   "Variant " + v,
			Checked: slices.Contains(sel.Variants, v),
		})
	}
	return form
}

// RenderPage writes the full HTML index page
func RenderPage(w io.Writer, page Page) error {
	// A template error must not leave a half-written page
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index", page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderResults writes the HTML fragment listing the results
func RenderResults(w io.Writer, results []finder.SubjectLinks) error {
	if err := templates.ExecuteTemplate(w, "results", results); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	return nil
}

// RenderJSON writes v as indented JSON
func RenderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
