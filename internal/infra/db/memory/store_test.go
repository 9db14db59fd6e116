package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

func TestDraftsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Drafts()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &domain.Draft{Title: title, DraftData: "x", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestDraftGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Drafts()

	d := &domain.Draft{Title: "t", DraftData: "x", TeamNames: []string{"A"}}
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	got.TeamNames[0] = "mutated"

	again, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, again.TeamNames)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	drafts, analyses := store.Drafts(), store.Analyses()

	d := &domain.Draft{Title: "t", DraftData: "x"}
	require.NoError(t, drafts.Create(ctx, d))

	a := &domain.Analysis{DraftID: d.ID, Status: domain.StatusPending, ShareToken: "tok"}
	require.NoError(t, analyses.Create(ctx, a))

	err := analyses.Create(ctx, &domain.Analysis{DraftID: d.ID, Status: domain.StatusPending, ShareToken: "tok"})
	assert.Error(t, err, "share tokens are unique")

	err = analyses.Create(ctx, &domain.Analysis{DraftID: 404, Status: domain.StatusPending, ShareToken: "other"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "draft must exist")

	_, err = analyses.GetShared(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound, "pending and private")

	text := "report"
	now := time.Now()
	require.NoError(t, analyses.Finish(ctx, &domain.Analysis{ID: a.ID, Status: domain.StatusCompleted, AnalysisText: &text, UpdatedAt: &now}))
	assert.ErrorIs(t, analyses.Finish(ctx, &domain.Analysis{ID: a.ID, Status: domain.StatusFailed}), domain.ErrAlreadyFinished)

	_, err = analyses.GetShared(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound, "completed but private")

	require.NoError(t, analyses.MarkPublic(ctx, a.ID))
	require.NoError(t, analyses.MarkPublic(ctx, a.ID))

	shared, err := analyses.GetShared(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "report", *shared.AnalysisText)

	list, err := analyses.ListByDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	nd, na := store.Counts()
	assert.Equal(t, 1, nd)
	assert.Equal(t, 1, na)
}
