// Package papers builds the candidate download URLs for past exam papers.
//
// URLs follow the fixed naming convention
//
//	<base><subject>_<session><yy>_<qp|ms>_<paper><variant>.pdf
//
// and are never fetched or checked; a generated URL may point at a paper
// that was never published.
package papers

import (
	"strconv"
	"time"
)

// DefaultBaseURL is the host and path prefix every paper URL starts with
const DefaultBaseURL = "https://dynamicpapers.com/wp-content/uploads/2015/09/"

// Config holds the values Generate needs besides the request itself
type Config struct {
	BaseURL string
	// Now decides whether this year's winter session has happened yet
	Now time.Time
}

// Request describes the URLs to generate for a single subject
type Request struct {
	SubjectCode string
	StartYear   int
	EndYear     int // inclusive
	Papers      List
	Sessions    []Session
	Variants    []string
	Types       []DocType
}

// Result is the generated URL tree for one subject, most recent year first
type Result []YearLinks

// YearLinks holds every session generated for a year
type YearLinks struct {
	Year     string         `json:"year"`
	Sessions []SessionLinks `json:"sessions"`
}

// SessionLinks holds the papers of one session
type SessionLinks struct {
	Label     string       `json:"label"`
	Code      Session      `json:"code"`
	ShortCode string       `json:"short_code"`
	Papers    []PaperLinks `json:"papers"`
}

// PaperLinks holds the URLs for every variant of one paper
type PaperLinks struct {
	Label          string   `json:"label"`
	QuestionPapers []string `json:"qp"`
	MarkSchemes    []string `json:"ms"`
}

// Years returns the year keys in output order
func (r Result) Years() []string {
	years := make([]string, len(r))
	for i, y := range r {
		years[i] = y.Year
	}
	return years
}

// URLs returns every generated URL in output order
func (r Result) URLs() []string {
	var urls []string
	for _, y := range r {
		for _, s := range y.Sessions {
			for _, p := range s.Papers {
				urls = append(urls, p.QuestionPapers...)
				urls = append(urls, p.MarkSchemes...)
			}
		}
	}
	return urls
}

// Generate expands a request into its URL tree. It performs no I/O and its
// output depends only on its arguments.
func Generate(cfg Config, req Request) Result {
	if req.EndYear < req.StartYear {
		return Result{}
	}

	requested := make(map[Session]bool, len(req.Sessions))
	for _, s := range req.Sessions {
		requested[s] = true
	}
	wantQP, wantMS := false, false
	for _, t := range req.Types {
		switch t {
		case QuestionPaper:
			wantQP = true
		case MarkScheme:
			wantMS = true
		}
	}

	result := Result{}
	for year := req.EndYear; year >= req.StartYear; year-- {
		yl := YearLinks{Year: strconv.Itoa(year), Sessions: []SessionLinks{}}

		for _, session := range sessionOrder {
			if !requested[session] {
				continue
			}
			if session == Winter && !winterAvailable(year, cfg.Now) {
				continue
			}

			sl := SessionLinks{
				Label:     session.Label(year),
				Code:      session,
				ShortCode: session.ShortCode(year),
				Papers:    make([]PaperLinks, 0, len(req.Papers)),
			}

			for _, paper := range req.Papers {
				pl := PaperLinks{Label: paper.Label(), QuestionPapers: []string{}, MarkSchemes: []string{}}

				for _, variant := range req.Variants {
					// The March sitting is only ever offered as variant 2
					if session == March && variant != "2" {
						continue
					}
					variantCode := paper.Number + variant
					if wantQP {
						pl.QuestionPapers = append(pl.QuestionPapers, paperURL(cfg.BaseURL, req.SubjectCode, sl.ShortCode, QuestionPaper, variantCode))
					}
					if wantMS {
						pl.MarkSchemes = append(pl.MarkSchemes, paperURL(cfg.BaseURL, req.SubjectCode, sl.ShortCode, MarkScheme, variantCode))
					}
				}
				sl.Papers = append(sl.Papers, pl)
			}
			yl.Sessions = append(yl.Sessions, sl)
		}
		result = append(result, yl)
	}
	return result
}

// winterAvailable reports whether the Oct/Nov papers of year can exist at now
func winterAvailable(year int, now time.Time) bool {
	return year != now.Year() || now.Month() >= time.October
}

// TwoDigitYear returns the last two digits of the decimal year
func TwoDigitYear(year int) string {
	s := strconv.Itoa(year)
	if len(s) > 2 {
		return s[len(s)-2:]
	}
	return s
}

// SessionURL returns the URL of a per-session document such as the
// examiner report or grade thresholds, e.g. <base>9709_s24_er.pdf
func SessionURL(base, subject, shortCode string, docType DocType) string {
	return base + subject + "_" + shortCode + "_" + string(docType) + ".pdf"
}

func paperURL(base, subject, shortCode string, docType DocType, variantCode string) string {
	return base + subject + "_" + shortCode + "_" + string(docType) + "_" + variantCode + ".pdf"
}
