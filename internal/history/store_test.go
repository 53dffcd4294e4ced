package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(undecided, decided int) models.ReactionResult {
	var reactions []models.ScenarioReaction
	for i := 0; i < undecided; i++ {
		reactions = append(reactions, models.ScenarioReaction{Tags: []string{models.TagUndecided}})
	}
	for i := 0; i < decided; i++ {
		reactions = append(reactions, models.ScenarioReaction{SentimentDelta: 0.2, Tags: []string{"loyal"}})
	}
	return models.ReactionResult{
		Reactions: reactions,
		Summary: models.ReactionSummary{
			AverageSentiment: 0.25,
			SentimentDelta:   0.1,
			PositiveCount:    decided,
			NeutralCount:     undecided,
			TotalAgents:      undecided + decided,
		},
	}
}

func TestRecordAndList(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.Record(ctx, "biz-001", "price_change", "Latte up to $6", result(1, 2))
	require.NoError(t, err)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, 1, first.UndecidedCount)
	assert.Equal(t, 3, first.TotalAgents)

	second, err := s.Record(ctx, "", "new_product", "Oat milk", result(0, 4))
	require.NoError(t, err)

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	if diff := cmp.Diff([]Run{second, first}, runs); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_Limit(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, "biz", "hours", "Open later", result(0, 1))
		require.NoError(t, err)
	}

	runs, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestList_Empty(t *testing.T) {
	runs, err := tempStore(t).List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
