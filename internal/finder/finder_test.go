package finder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/testutils"
)

var june2025 = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *finder.Service {
	t.Helper()
	store := testutils.NewCatalogStore(t,
		testutils.MustSubject(t, "9709", "Mathematics", "1:Pure 1, 4:Mechanics"),
		testutils.MustSubject(t, "9701", "Chemistry", "2:AS Structured"),
	)
	return finder.New(store, finder.Settings{MaxYearSpan: 20}, testutils.CreateTestLogger(), finder.WithClock(testutils.FixedClock(june2025)))
}

func TestSearch_AllSubjects(t *testing.T) {
	svc := newService(t)

	results, err := svc.Search(context.Background(), papers.Selection{
		YearRange:   "2024-2025",
		AllSessions: true,
		Variants:    []string{"2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "9701", results[0].Code)
	assert.Equal(t, "9709", results[1].Code)
	assert.Equal(t, papers.DefaultBaseURL, results[1].BaseURL)

	maths := results[1].Links
	assert.Equal(t, []string{"2025", "2024"}, maths.Years())

	// June 2025: no winter session for 2025 yet
	var codes2025 []string
	for _, s := range maths[0].Sessions {
		codes2025 = append(codes2025, s.ShortCode)
	}
	assert.Equal(t, []string{"s25", "m25"}, codes2025)
	assert.Len(t, maths[1].Sessions, 3)

	assert.Contains(t, maths.URLs(), papers.DefaultBaseURL+"9709_m25_ms_42.pdf")
}

func TestSearch_SingleSubject(t *testing.T) {
	svc := newService(t)

	results, err := svc.Search(context.Background(), papers.Selection{
		YearRange: "2024-2024",
		Sessions:  []string{"s"},
		Variants:  []string{"1"},
		Types:     []string{"qp"},
		Subject:   "9709",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{
		papers.DefaultBaseURL + "9709_s24_qp_11.pdf",
		papers.DefaultBaseURL + "9709_s24_qp_41.pdf",
	}, results[0].Links.URLs())
}

func TestSearch_Errors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, papers.Selection{YearRange: "20x0-2024"})
	assert.ErrorIs(t, err, papers.ErrInvalidInput)

	_, err = svc.Search(ctx, papers.Selection{YearRange: "1990-2025"})
	assert.ErrorIs(t, err, papers.ErrInvalidInput)

	_, err = svc.Search(ctx, papers.Selection{YearRange: "2024-2024", Subject: "0000"})
	assert.ErrorIs(t, err, finder.ErrNotFound)
}

func TestAddSubject(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	subject, err := svc.AddSubject(ctx, "9702", "Physics", "1:Multiple Choice, 2: AS Structured")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Multiple Choice", "2": "AS Structured"}, subject.Papers.Map())

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, "9702", subjects[1].Code)
}

func TestAddSubject_ReplacesExisting(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, "9709", "Further Maths", "1:Further Pure 1")
	require.NoError(t, err)

	subjects, err := svc.FindSubjects(ctx, "Further")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "9709", subjects[0].Code)
	assert.Equal(t, map[string]string{"1": "Further Pure 1"}, subjects[0].Papers.Map())
}

func TestAddSubject_InvalidIsNotSaved(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, "9702", "Physics", "no papers here")
	require.Error(t, err)
	assert.ErrorIs(t, err, papers.ErrInvalidInput)

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)
}
