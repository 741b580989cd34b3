package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/report"
)

// selectionFromForm reads a selection from form or query values. The keys
// are the HTML form's: year_range, sessions, variants, sessions_all and
// variants_all. The API also accepts the singular forms.
func selectionFromForm(values url.Values) papers.Selection {
	return papers.Selection{
		YearRange:   firstOf(values, "year_range", "years"),
		Sessions:    slices.Concat(values["sessions"], values["session"]),
		Variants:    slices.Concat(values["variants"], values["variant"]),
		Types:       slices.Concat(values["types"], values["type"]),
		AllSessions: isSet(values, "sessions_all", "all_sessions"),
		AllVariants: isSet(values, "variants_all", "all_variants"),
		Subject:     values.Get("subject"),
	}
}

func firstOf(values url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(values.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func isSet(values url.Values, keys ...string) bool {
	for _, k := range keys {
		switch strings.ToLower(strings.TrimSpace(values.Get(k))) {
		case "", "0", "false", "off", "no":
		default:
			return true
		}
	}
	return false
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, papers.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, finder.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := report.Page{Form: report.NewForm(papers.Selection{}, s.opts.DefaultYearRange)}
	if code := r.URL.Query().Get("added"); code != "" {
		page.Notice = fmt.Sprintf("Saved subject %s.", code)
	}
	s.renderPage(w, r, http.StatusOK, page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, report.Page{
			Form:  report.NewForm(papers.Selection{}, s.opts.DefaultYearRange),
			Error: "Could not read the form.",
		})
		return
	}

	sel := selectionFromForm(r.PostForm)
	if sel.YearRange == "" {
		sel.YearRange = s.opts.DefaultYearRange
	}
	page := report.Page{Form: report.NewForm(sel, s.opts.DefaultYearRange)}

	results, err := s.svc.Search(r.Context(), sel)
	if err != nil {
		s.logFailure(r, err, "Search failed")
		page.Error = err.Error()
		s.renderPage(w, r, statusFor(err), page)
		return
	}

	page.Submitted = true
	page.Results = results
	s.renderPage(w, r, http.StatusOK, page)
}

func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "could not read the form", http.StatusBadRequest)
		return
	}

	code := r.PostForm.Get("code")
	name := r.PostForm.Get("name")
	papersString := r.PostForm.Get("papers")

	subject, err := s.svc.AddSubject(r.Context(), code, name, papersString)
	if err != nil {
		s.logFailure(r, err, "Subject rejected")
		s.renderPage(w, r, statusFor(err), report.Page{
			Form:    report.NewForm(papers.Selection{}, s.opts.DefaultYearRange),
			AddForm: report.AddForm{Code: code, Name: name, Papers: papersString},
			Error:   err.Error(),
		})
		return
	}

	http.Redirect(w, r, "/?added="+url.QueryEscape(subject.Code), http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPISubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.svc.Subjects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]subjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, newSubjectResponse(subject))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

type subjectResponse struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Papers papers.List `json:"papers"`
}

func newSubjectResponse(s catalog.Subject) subjectResponse {
	return subjectResponse{Code: s.Code, Name: s.Name, Papers: s.Papers}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type addSubjectRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Papers string `json:"papers"`
}

func (s *Server) handleAPIAddSubject(w http.ResponseWriter, r *http.Request) {
	var req addSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, &papers.InputError{Field: "body", Value: "", Message: err.Error()})
		return
	}
	subject, err := s.svc.AddSubject(r.Context(), req.Code, req.Name, req.Papers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSubjectResponse(subject))
}

func (s *Server) handleAPILinks(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromForm(r.URL.Query())
	if sel.YearRange == "" {
		sel.YearRange = s.opts.DefaultYearRange
	}
	results, err := s.svc.Search(r.Context(), sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page report.Page) {
	subjects, err := s.svc.Subjects(r.Context())
	if err != nil {
		s.logFailure(r, err, "Failed to load catalog")
		http.Error(w, "failed to load subjects", http.StatusInternalServerError)
		return
	}
	page.Subjects = subjects

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := report.RenderPage(w, page); err != nil {
		s.logFailure(r, err, "Failed to render page")
	}
}

func (s *Server) logFailure(r *http.Request, err error, msg string) {
	entry := s.logger.WithError(err).WithField("request_id", RequestIDFromContext(r.Context()))
	if statusFor(err) >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Debug(msg)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err, "API request failed")
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := report.RenderJSON(w, v); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"status": status}).Warn("Failed to write JSON response")
	}
}
