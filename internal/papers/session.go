package papers

import "fmt"

// Session identifies one of the examination sittings in a year
type Session string

const (
	Winter Session = "w"
	Summer Session = "s"
	March  Session = "m"
)

// sessionOrder is the order sessions are emitted in for every year
var sessionOrder = []Session{Winter, Summer, March}

var monthRanges = map[Session]string{
	Winter: "Oct/Nov",
	Summer: "May/June",
	March:  "Feb/March",
}

// AllSessions returns every known session in output order
func AllSessions() []Session {
	return append([]Session(nil), sessionOrder...)
}

// ParseSession converts a session code into a Session
func ParseSession(code string) (Session, error) {
	s := Session(code)
	if _, ok := monthRanges[s]; !ok {
		return "", &InputError{Field: "session", Value: code, Message: "unknown session code (expected w, s or m)"}
	}
	return s, nil
}

// MonthRange returns the display string for the months the session covers
func (s Session) MonthRange() string {
	return monthRanges[s]
}

// Label returns the display label of the session in the given year, e.g. "May/June 2024"
func (s Session) Label(year int) string {
	return fmt.Sprintf("%s %d", s.MonthRange(), year)
}

// ShortCode returns the session code joined with the two-digit year, e.g. "s24"
func (s Session) ShortCode(year int) string {
	return string(s) + TwoDigitYear(year)
}

// DocType is the kind of document a URL points at
type DocType string

const (
	QuestionPaper DocType = "qp"
	MarkScheme    DocType = "ms"

	// Published once per session rather than per paper variant
	ExaminerReport  DocType = "er"
	GradeThresholds DocType = "gt"
)

// AllDocTypes returns both document types in output order
func AllDocTypes() []DocType {
	return []DocType{QuestionPaper, MarkScheme}
}

// ParseDocType converts a form or flag value into a DocType
func ParseDocType(value string) (DocType, error) {
	switch DocType(value) {
	case QuestionPaper, MarkScheme:
		return DocType(value), nil
	default:
		return "", &InputError{Field: "type", Value: value, Message: "unknown document type (expected qp or ms)"}
	}
}
