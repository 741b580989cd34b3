// Package finder runs the URL generator over the subject catalog.
package finder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound is returned when a requested subject is not in the catalog
var ErrNotFound = errors.New("subject not found")

// SubjectLinks is the generated URL tree of one catalog subject
type SubjectLinks struct {
	Code    string        `json:"subject_code"`
	Name    string        `json:"name"`
	BaseURL string        `json:"base_url"`
	Links   papers.Result `json:"links"`
}

// Settings are the parts of the application config the service uses
type Settings struct {
	BaseURL     string
	MaxYearSpan int
}

// Service loads the catalog and generates links for its subjects
type Service struct {
	store    *catalog.Store
	settings Settings
	logger   *logrus.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock used for the winter session cut-off
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service backed by store
func New(store *catalog.Store, settings Settings, logger *logrus.Logger, opts ...Option) *Service {
	if settings.BaseURL == "" {
		settings.BaseURL = papers.DefaultBaseURL
	}
	s := &Service{
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the prefix generated URLs start with
func (s *Service) BaseURL() string {
	return s.settings.BaseURL
}

// Subjects returns the catalog subjects ordered by code
func (s *Service) Subjects(ctx context.Context) ([]catalog.Subject, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Sorted(), nil
}

// FindSubjects returns subjects matching query, best match first
func (s *Service) FindSubjects(ctx context.Context, query string) ([]catalog.Subject, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Find(query), nil
}

// Search generates links for every catalog subject, or only for
// sel.Subject when it is set
func (s *Service) Search(ctx context.Context, sel papers.Selection) (_ []SubjectLinks, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNameSearch)
	defer func() { telemetry.EndSpan(span, err) }()

	resolved, err := sel.Resolve(s.settings.MaxYearSpan)
	if err != nil {
		return nil, err
	}

	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	subjects := c.Sorted()
	if resolved.Subject != "" {
		subject, ok := c.Get(resolved.Subject)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, resolved.Subject)
		}
		subjects = []catalog.Subject{subject}
	}

	cfg := papers.Config{BaseURL: s.settings.BaseURL, Now: s.now()}
	results := make([]SubjectLinks, 0, len(subjects))
	for _, subject := range subjects {
		results = append(results, SubjectLinks{
			Code:    subject.Code,
			Name:    subject.Name,
			BaseURL: s.settings.BaseURL,
			Links:   papers.Generate(cfg, resolved.Request(subject.Code, subject.Papers)),
		})
	}

	span.SetAttributes(
		attribute.Int(telemetry.AttrSubjectCount, len(results)),
		attribute.Int(telemetry.AttrYearStart, resolved.StartYear),
		attribute.Int(telemetry.AttrYearEnd, resolved.EndYear),
	)
	s.logger.WithFields(logrus.Fields{
		"subjects":   len(results),
		"start_year": resolved.StartYear,
		"end_year":   resolved.EndYear,
		"sessions":   resolved.Sessions,
		"variants":   resolved.Variants,
	}).Debug("Generated paper links")

	return results, nil
}

// AddSubject validates a subject submission and merges it into the catalog.
// Nothing is saved when validation fails.
func (s *Service) AddSubject(ctx context.Context, code, name, papersString string) (_ catalog.Subject, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNameAddSubject,
		attribute.String(telemetry.AttrSubjectCode, code),
		attribute.String(telemetry.AttrCatalogPath, s.store.Path()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	subject, err := catalog.NewSubject(code, name, papersString)
	if err != nil {
		return catalog.Subject{}, err
	}

	c, err := s.store.Load(ctx)
	if err != nil {
		return catalog.Subject{}, err
	}
	_, replaced := c.Get(subject.Code)
	c.Put(subject)
	if err := s.store.Save(ctx, c); err != nil {
		return catalog.Subject{}, fmt.Errorf("failed to save catalog: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"code":     subject.Code,
		"papers":   len(subject.Papers),
		"replaced": replaced,
	}).Info("Subject saved")

	return subject, nil
}
