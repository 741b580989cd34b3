// Package cli implements the terminal commands against the finder service
// and the PDF converter, writing to a configurable output.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	"github.com/txrtlemrry/PaperFinder-App/internal/convert"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/report"
)

// OutputFormat controls how results are rendered.
type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputMarkdown OutputFormat = "markdown"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON, OutputMarkdown:
		return f, nil
	default:
		return "", &papers.InputError{Field: "format", Value: s, Message: "expected text, json or markdown"}
	}
}

// Runner executes CLI commands.
type Runner struct {
	logger *logrus.Logger
	svc    *finder.Service
	out    io.Writer
	output OutputFormat
	colour bool
}

// NewRunner creates a Runner writing to out in the given format.
func NewRunner(logger *logrus.Logger, svc *finder.Service, out io.Writer, output OutputFormat, colour bool) *Runner {
	return &Runner{logger: logger, svc: svc, out: out, output: output, colour: colour}
}

// Generate prints the links for a selection.
func (r *Runner) Generate(ctx context.Context, sel papers.Selection) error {
	results, err := r.svc.Search(ctx, sel)
	if err != nil {
		return err
	}

	switch r.output {
	case OutputJSON:
		return report.RenderJSON(r.out, results)
	case OutputMarkdown:
		md, err := report.RenderMarkdown(r.logger, results)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, md)
		return err
	default:
		return report.RenderText(r.out, results, r.colour)
	}
}

// ListSubjects prints every subject in the catalog.
func (r *Runner) ListSubjects(ctx context.Context) error {
	subjects, err := r.svc.Subjects(ctx)
	if err != nil {
		return err
	}
	return r.printSubjects(subjects)
}

// FindSubjects prints subjects fuzzily matching query, best match first.
func (r *Runner) FindSubjects(ctx context.Context, query string) error {
	subjects, err := r.svc.FindSubjects(ctx, query)
	if err != nil {
		return err
	}
	if len(subjects) == 0 && r.output != OutputJSON {
		_, err := fmt.Fprintf(r.out, "No subjects match %q\n", query)
		return err
	}
	return r.printSubjects(subjects)
}

// AddSubject validates and saves a subject.
func (r *Runner) AddSubject(ctx context.Context, code, name, papersString string) error {
	subject, err := r.svc.AddSubject(ctx, code, name, papersString)
	if err != nil {
		return err
	}
	if r.output == OutputJSON {
		return report.RenderJSON(r.out, subjectEntry(subject))
	}
	_, err = fmt.Fprintf(r.out, "Saved subject %s (%s) with %d papers\n", subject.Code, subject.Name, len(subject.Papers))
	return err
}

// Convert runs a conversion batch and prints its summary.
func (r *Runner) Convert(ctx context.Context, c *convert.Converter, in, out string) error {
	summary, err := c.Run(ctx, in, out)
	if err != nil {
		return err
	}
	if r.output == OutputJSON {
		return report.RenderJSON(r.out, summary)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, f := range summary.Files {
		status := fmt.Sprintf("%d pages", f.Pages)
		if f.Err != nil {
			status = "failed: " + f.Error
		}
		fmt.Fprintf(w, "%s\t%s\n", f.Path, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "Converted %d files (%d pages), %d failed\n", summary.Converted, summary.Pages, summary.Failed)
	return err
}

// Watch converts the files already present and then those that appear until
// ctx is cancelled, printing each result as a line.
func (r *Runner) Watch(ctx context.Context, c *convert.Converter, in, out string) error {
	var mu sync.Mutex
	return c.Watch(ctx, in, out, func(f convert.FileResult) {
		mu.Lock()
		defer mu.Unlock()
		if r.output == OutputJSON {
			if err := report.RenderJSON(r.out, f); err != nil {
				r.logger.WithError(err).Warn("Failed to write result")
			}
			return
		}
		if f.Err != nil {
			fmt.Fprintf(r.out, "%s\tfailed: %s\n", f.Path, f.Error)
			return
		}
		fmt.Fprintf(r.out, "%s\t%d pages\n", f.Path, f.Pages)
	})
}

type jsonSubject struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Papers papers.List `json:"papers"`
}

func subjectEntry(s catalog.Subject) jsonSubject {
	return jsonSubject{Code: s.Code, Name: s.Name, Papers: s.Papers}
}

func (r *Runner) printSubjects(subjects []catalog.Subject) error {
	if r.output == OutputJSON {
		out := make([]jsonSubject, len(subjects))
		for i, s := range subjects {
			out[i] = subjectEntry(s)
		}
		return report.RenderJSON(r.out, out)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, s := range subjects {
		numbers := make([]string, len(s.Papers))
		for i, p := range s.Papers {
			numbers[i] = p.Number
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Code, s.Name, strings.Join(numbers, ","))
	}
	return w.Flush()
}
