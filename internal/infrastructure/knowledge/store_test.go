package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campus-assistant/internal/infrastructure/logger"

	"github.com/stretchr/testify/require"
)

const seedYAML = `
faqs:
  - question: How do I apply for financial aid?
    answer: Submit the FAFSA by March 2 and check the financial aid portal.
    category: financial
    keywords: fafsa financial aid
prerequisites:
  - course_code: CMPE 259
    course_name: Natural Language Processing
    prerequisite_courses: CMPE 252 or CMPE 255 or CMPE 257, or instructor consent
    description: Graduate NLP course.
deadlines:
  - deadline_type: Fall admission application
    date: "2026-04-01"
    semester: Fall 2026
campus_resources:
  - resource_name: Martin Luther King Jr. Library
    location: 150 E San Fernando St
    description: Main campus library, open late during finals.
scholarships:
  - scholarship_name: Dean's Merit Scholarship
    amount: $2,500
    eligibility: GPA 3.5 or higher
student_clubs:
  - club_name: Machine Learning Club
    category: technology
    description: Weekly paper readings and project nights.
`

func openSeeded(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0o644))

	store, err := Open(filepath.Join(dir, "knowledge.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Seed(context.Background(), seedPath))
	return store
}

func TestStore_SeedAndSearch(t *testing.T) {
	store := openSeeded(t)

	res, err := store.Search(context.Background(), "CMPE 259 prerequisites")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.NotEmpty(t, res.Records)

	top := res.Records[0]
	require.Contains(t, top.Content, "CMPE 252 or CMPE 255 or CMPE 257, or instructor consent")
	require.Equal(t, "prerequisites", top.Source)
	require.Equal(t, "academics", top.Category)
	require.InDelta(t, 1.0, top.Score, 0.001, "top hit score is normalized to 1")
}

func TestStore_SearchAcrossTables(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	cases := []struct {
		query   string
		source  string
		content string
	}{
		{"financial aid fafsa", "faq", "FAFSA"},
		{"fall admission application deadline", "deadlines", "2026-04-01"},
		{"library location", "campus_resources", "San Fernando"},
		{"merit scholarship eligibility", "scholarships", "GPA 3.5"},
		{"machine learning club", "student_clubs", "paper readings"},
	}
	for _, c := range cases {
		res, err := store.Search(ctx, c.query)
		require.NoError(t, err, c.query)
		require.True(t, res.Found, c.query)

		found := false
		for _, rec := range res.Records {
			if rec.Source == c.source && strings.Contains(rec.Content, c.content) {
				found = true
				break
			}
		}
		require.True(t, found, "query %q: expected a %s hit containing %q", c.query, c.source, c.content)
	}
}

func TestStore_SearchMissIsNotAnError(t *testing.T) {
	store := openSeeded(t)

	res, err := store.Search(context.Background(), "underwater basket weaving")
	require.NoError(t, err)
	if res.Found {
		require.NotEmpty(t, res.Records)
	} else {
		require.Empty(t, res.Records)
	}
}

func TestStore_ResultCountBounded(t *testing.T) {
	store := openSeeded(t)

	res, err := store.Search(context.Background(), "deadline library scholarship club financial")
	require.NoError(t, err)
	require.LessOrEqual(t, len(res.Records), defaultResultCount)
}

func TestIndex_PutAndSearch(t *testing.T) {
	idx, err := NewMemIndex()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Put(Document{
		ID:      "doc-1",
		Content: "Advising appointments are booked through the student portal.",
		Source:  "faq",
	}))
	require.NoError(t, idx.Put(Document{
		ID:      "doc-2",
		Content: "The bookstore buys back textbooks at the end of each semester.",
		Source:  "faq",
	}))
	require.Equal(t, 2, idx.Count())

	hits, err := idx.Search(context.Background(), "advising appointment", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "doc-1", hits[0].Doc.ID)
}
