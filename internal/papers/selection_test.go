package papers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
)

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		start     int
		end       int
		expectErr bool
	}{
		{name: "range", input: "2020-2025", start: 2020, end: 2025},
		{name: "whitespace", input: " 2020 - 2025 ", start: 2020, end: 2025},
		{name: "single year", input: "2023", start: 2023, end: 2023},
		{name: "reversed is allowed", input: "2025-2020", start: 2025, end: 2020},
		{name: "non numeric start", input: "abcd-2025", expectErr: true},
		{name: "non numeric end", input: "2020-20x5", expectErr: true},
		{name: "missing end", input: "2020-", expectErr: true},
		{name: "empty", input: "", expectErr: true},
		{name: "negative", input: "-2020", expectErr: true},
		{name: "too many parts", input: "2020-2021-2022", expectErr: true},
		{name: "five digit year", input: "2020-12025", expectErr: true},
		{name: "int overflow", input: "0-9223372036854775807", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := papers.ParseYearRange(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, papers.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestSelectionResolve_Shortcuts(t *testing.T) {
	resolved, err := papers.Selection{
		YearRange:   "2022-2024",
		Sessions:    []string{"s"},
		Variants:    []string{"1"},
		AllSessions: true,
		AllVariants: true,
	}.Resolve(papers.DefaultMaxYearSpan)
	require.NoError(t, err)

	assert.Equal(t, []papers.Session{papers.Winter, papers.Summer, papers.March}, resolved.Sessions)
	assert.Equal(t, []string{"1", "2", "3"}, resolved.Variants)
	assert.Equal(t, papers.AllDocTypes(), resolved.Types)
	assert.Equal(t, 2022, resolved.StartYear)
	assert.Equal(t, 2024, resolved.EndYear)
}

func TestSelectionResolve_Defaults(t *testing.T) {
	resolved, err := papers.Selection{Sessions: []string{"s", "s", " w "}, Variants: []string{"2", "", "2"}}.Resolve(0)
	require.NoError(t, err)

	assert.Equal(t, 2020, resolved.StartYear)
	assert.Equal(t, 2025, resolved.EndYear)
	assert.Equal(t, []papers.Session{papers.Summer, papers.Winter}, resolved.Sessions)
	assert.Equal(t, []string{"2"}, resolved.Variants)
}

func TestSelectionResolve_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		selection papers.Selection
	}{
		{name: "bad years", selection: papers.Selection{YearRange: "twenty-twenty"}},
		{name: "unknown session", selection: papers.Selection{YearRange: "2020-2021", Sessions: []string{"x"}}},
		{name: "bad variant", selection: papers.Selection{YearRange: "2020-2021", Variants: []string{"a"}}},
		{name: "long variant", selection: papers.Selection{YearRange: "2020-2021", Variants: []string{"123"}}},
		{name: "unknown type", selection: papers.Selection{YearRange: "2020-2021", Types: []string{"er"}}},
		{name: "span too large", selection: papers.Selection{YearRange: "1900-2025"}},
		{name: "span one over limit", selection: papers.Selection{YearRange: "1975-2025"}},
		{name: "span overflows int", selection: papers.Selection{YearRange: "0-9223372036854775807", AllSessions: true, AllVariants: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.selection.Resolve(papers.DefaultMaxYearSpan)
			require.Error(t, err)
			assert.ErrorIs(t, err, papers.ErrInvalidInput)
		})
	}
}

func TestSelectionResolve_SpanLimit(t *testing.T) {
	resolved, err := papers.Selection{YearRange: "1976-2025"}.Resolve(papers.DefaultMaxYearSpan)
	require.NoError(t, err)
	assert.Equal(t, 1976, resolved.StartYear)

	// A reversed range selects nothing, so its span is never too large
	_, err = papers.Selection{YearRange: "9999-0"}.Resolve(papers.DefaultMaxYearSpan)
	require.NoError(t, err)
}

func TestResolvedRequest(t *testing.T) {
	resolved, err := papers.Selection{YearRange: "2024", Sessions: []string{"s"}, Variants: []string{"1"}, Types: []string{"qp"}}.Resolve(0)
	require.NoError(t, err)

	req := resolved.Request("9709", papers.List{}.Set("1", "Pure 1"))
	result := papers.Generate(papers.Config{BaseURL: papers.DefaultBaseURL, Now: lateNow}, req)
	assert.Equal(t, []string{papers.DefaultBaseURL + "9709_s24_qp_11.pdf"}, result.URLs())
}
