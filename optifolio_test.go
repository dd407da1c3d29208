package optifolio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/feed"
	"github.com/raykavin/optifolio/optimizer"
)

func studyFixture(t *testing.T) (*Optifolio, context.Context) {
	t.Helper()

	dir := t.TempDir()
	aaa := filepath.Join(dir, "aaa.csv")
	bbb := filepath.Join(dir, "bbb.csv")
	require.NoError(t, os.WriteFile(aaa, []byte("date,close\n2025-01-01,1.00\n2025-01-02,1.02\n2025-01-03,1.01\n2025-01-04,1.05\n"), 0o644))
	require.NoError(t, os.WriteFile(bbb, []byte("date,close\n2025-01-01,1.00\n2025-01-02,0.99\n2025-01-03,1.00\n2025-01-04,0.98\n"), 0o644))

	provider, err := feed.NewCSVFeed(
		feed.SymbolFile{Symbol: "AAA", File: aaa},
		feed.SymbolFile{Symbol: "BBB", File: bbb},
	)
	require.NoError(t, err)

	grid, err := optimizer.NewGridSearch(optimizer.NewConfig())
	require.NoError(t, err)

	study, err := New(Settings{
		Symbols: []string{"AAA", "BBB"},
		Start:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}, provider, grid)
	require.NoError(t, err)

	return study, context.Background()
}

func TestStudyRun(t *testing.T) {
	study, ctx := studyFixture(t)

	result, err := study.Run(ctx)
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.InDelta(t, 1.0, result.Weights.Sum(), 1e-9)
	assert.Same(t, result, study.Result())
}

func TestStudySaveReturns(t *testing.T) {
	study, ctx := studyFixture(t)

	_, err := study.Run(ctx)
	require.NoError(t, err)

	outputFile := filepath.Join(t.TempDir(), "returns.csv")
	require.NoError(t, study.SaveReturns(outputFile))

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 5) // header plus four trading days
	assert.Equal(t, "date,value,daily_return", lines[0])
}

func TestStudySummary(t *testing.T) {
	study, ctx := studyFixture(t)

	// Before a run the summary degrades gracefully.
	study.Summary()

	_, err := study.Run(ctx)
	require.NoError(t, err)
	study.Summary()
}

func TestStudySaveReturnsBeforeRun(t *testing.T) {
	study, _ := studyFixture(t)
	assert.Error(t, study.SaveReturns("unused.csv"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Settings{}, nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyPortfolio)

	_, err = New(Settings{
		Symbols: []string{"AAA"},
		Start:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil, nil)
	assert.Error(t, err)
}
