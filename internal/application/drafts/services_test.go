package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/draft-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
	"github.com/bryanwahyu/draft-analyzer/internal/infra/db/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeFiles struct {
	mu      sync.Mutex
	saved   map[string][]byte
	removed []string
	saveErr error
}

func (f *fakeFiles) Save(_ context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = data
	return "mem://" + key, nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	delete(f.saved, key)
	return nil
}

type fakeAI struct {
	text  string
	err   error
	calls []domai.DraftInput
}

func (f *fakeAI) Analyze(_ context.Context, in domai.DraftInput) (string, error) {
	f.calls = append(f.calls, in)
	return f.text, f.err
}

type failingDrafts struct{ domain.DraftRepository }

func (failingDrafts) Create(context.Context, *domain.Draft) error { return errors.New("db gone") }

type fixture struct {
	svc   *Service
	store *memory.Store
	files *fakeFiles
	ai    *fakeAI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	files := &fakeFiles{}
	ai := &fakeAI{text: "## Overall Draft Summary\nSolid draft."}
	n := 0
	svc := &Service{
		Drafts:      store.Drafts(),
		Analyses:    store.Analyses(),
		Files:       files,
		AI:          ai,
		Clock:       &fixedClock{t: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		MaxFileSize: 64,
		NewToken: func() string {
			n++
			return fmt.Sprintf("token-%d", n)
		},
	}
	return &fixture{svc: svc, store: store, files: files, ai: ai}
}

func (f *fixture) counts() (int, int) { return f.store.Counts() }

func TestParseTeamNames(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, ParseTeamNames(`["A","B"]`))
	assert.Equal(t, []string{"A", "B"}, ParseTeamNames("A, B"))
	assert.Equal(t, []string{}, ParseTeamNames(""))
	assert.Equal(t, []string{"A", "B"}, ParseTeamNames(" A ,, B , "))
	assert.Equal(t, []string{}, ParseTeamNames("null"))
	assert.Equal(t, []string{}, ParseTeamNames("[]"))
}

func TestClassifyFile(t *testing.T) {
	assert.Equal(t, domain.FileTypeCSV, ClassifyFile("draft.csv"))
	assert.Equal(t, domain.FileTypeText, ClassifyFile("draft.txt"))
	assert.Equal(t, domain.FileTypeText, ClassifyFile("draft.csv.bak"))
	assert.Equal(t, domain.FileTypeText, ClassifyFile("draft"))
}

func TestCreateDraft_Manual(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title:      "Test League",
		ManualData: "QB: John Doe\nRB: Jane Roe",
		TeamNames:  `["Alice","Bob"]`,
	})
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.Equal(t, domain.FileTypeManual, d.FileType)
	assert.Equal(t, "QB: John Doe\nRB: Jane Roe", d.DraftData)
	assert.Equal(t, []string{"Alice", "Bob"}, d.TeamNames)
	assert.Empty(t, f.files.saved, "manual drafts store no file")

	stored, err := f.svc.GetDraft(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.DraftData, stored.DraftData)
}

func TestCreateDraft_FileTypes(t *testing.T) {
	cases := []struct {
		name string
		want domain.FileType
	}{
		{"draft.csv", domain.FileTypeCSV},
		{"draft.txt", domain.FileTypeText},
		{"draft.CSV", domain.FileTypeText},
		{"results", domain.FileTypeText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			d, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
				Title: "L",
				File:  &Upload{Filename: tc.name, Data: []byte("a,b\n1,2")},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.FileType)
			assert.Equal(t, "a,b\n1,2", d.DraftData)

			require.Len(t, f.files.saved, 1)
			for key, data := range f.files.saved {
				assert.True(t, strings.HasSuffix(key, "_"+tc.name), key)
				assert.Greater(t, len(key), len(tc.name)+30, "key carries a random prefix")
				assert.Equal(t, []byte("a,b\n1,2"), data)
			}
		})
	}
}

func TestCreateDraft_FileWinsOverManual(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title:      "L",
		File:       &Upload{Filename: "d.txt", Data: []byte("from file")},
		ManualData: "from form",
	})
	require.NoError(t, err)
	assert.Equal(t, "from file", d.DraftData)
	assert.Equal(t, domain.FileTypeText, d.FileType)
}

func TestCreateDraft_EmptyFileFallsBackToManual(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title:      "L",
		File:       &Upload{Filename: "empty.csv"},
		ManualData: "typed",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeManual, d.FileType)
}

func TestCreateDraft_MissingInput(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []CreateDraftCommand{
		{Title: "L"},
		{Title: "L", File: &Upload{Filename: "empty.txt"}},
		{Title: "  ", ManualData: "x"},
	} {
		_, err := f.svc.CreateDraft(context.Background(), cmd)
		assert.ErrorIs(t, err, domain.ErrMissingInput)
	}
	nd, _ := f.counts()
	assert.Zero(t, nd)
}

func TestCreateDraft_TooLarge(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title: "L",
		File:  &Upload{Filename: "big.txt", Data: []byte(strings.Repeat("x", 65))},
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	nd, _ := f.counts()
	assert.Zero(t, nd)
	assert.Empty(t, f.files.saved)
}

func TestCreateDraft_InvalidUTF8(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title: "L",
		File:  &Upload{Filename: "bin.txt", Data: []byte{0xff, 0xfe, 0x00}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
	assert.False(t, errors.Is(err, domain.ErrMissingInput))
	nd, _ := f.counts()
	assert.Zero(t, nd)
}

func TestCreateDraft_InsertFailureRemovesUpload(t *testing.T) {
	f := newFixture(t)
	f.svc.Drafts = failingDrafts{f.svc.Drafts}

	_, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title: "L",
		File:  &Upload{Filename: "d.txt", Data: []byte("x")},
	})
	require.EqualError(t, err, "db gone")
	assert.Len(t, f.files.removed, 1)
	assert.Empty(t, f.files.saved)
}

func TestCreateDraft_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.files.saveErr = errors.New("disk full")

	_, err := f.svc.CreateDraft(context.Background(), CreateDraftCommand{
		Title: "L",
		File:  &Upload{Filename: "d.txt", Data: []byte("x")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	nd, _ := f.counts()
	assert.Zero(t, nd)
}

func TestAnalyzeDraft_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AnalyzeDraft(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, na := f.counts()
	assert.Zero(t, na)
	assert.Empty(t, f.ai.calls)
}

func TestAnalyzeDraft_Completed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{
		Title:          "L",
		ManualData:     "QB: John Doe",
		TeamNames:      "Alice, Bob",
		AdditionalInfo: "half PPR",
	})
	require.NoError(t, err)

	a, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, a.Status)
	require.NotNil(t, a.AnalysisText)
	assert.Equal(t, f.ai.text, *a.AnalysisText)
	assert.Nil(t, a.ErrorMessage)
	assert.False(t, a.IsPublic)
	assert.Equal(t, "token-1", a.ShareToken)

	require.Len(t, f.ai.calls, 1)
	assert.Equal(t, domai.DraftInput{
		DraftData:      "QB: John Doe",
		FileType:       "manual",
		TeamNames:      []string{"Alice", "Bob"},
		AdditionalInfo: "half PPR",
	}, f.ai.calls[0])

	stored, err := f.svc.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.UpdatedAt)
}

func TestAnalyzeDraft_FailedIsRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.err = fmt.Errorf("AI analysis failed: %w", domai.ErrQuotaExceeded)

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: "L", ManualData: "x"})
	require.NoError(t, err)

	a, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
	require.NotNil(t, a)
	assert.Equal(t, domain.StatusFailed, a.Status)

	stored, err := f.svc.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "AI analysis failed: ai quota exceeded", *stored.ErrorMessage)
	assert.Nil(t, stored.AnalysisText)

	// a retry is a new row; the failed one stays
	f.ai.err = nil
	again, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, again.ID)

	list, err := f.svc.ListAnalyses(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, again.ID, list[0].ID, "newest first")
	assert.Equal(t, domain.StatusFailed, list[1].Status)
}

func TestAnalyzeDraft_NeverLeftPending(t *testing.T) {
	for _, aiErr := range []error{nil, errors.New("boom")} {
		f := newFixture(t)
		f.ai.err = aiErr
		ctx := context.Background()

		d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: "L", ManualData: "x"})
		require.NoError(t, err)
		_, _ = f.svc.AnalyzeDraft(ctx, d.ID)

		list, err := f.svc.ListAnalyses(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.NotEqual(t, domain.StatusPending, list[0].Status)
	}
}

func TestShareAnalysis_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: "L", ManualData: "x"})
	require.NoError(t, err)
	a, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)

	first, err := f.svc.ShareAnalysis(ctx, a.ID)
	require.NoError(t, err)
	second, err := f.svc.ShareAnalysis(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, "/share/"+a.ShareToken, first.ShareURL)
	assert.Equal(t, first, second)

	stored, err := f.svc.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublic)
	assert.Equal(t, a.ShareToken, stored.ShareToken)
	_, na := f.counts()
	assert.Equal(t, 1, na)
}

func TestShareAnalysis_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ShareAnalysis(context.Background(), 12)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShareURL_WithBase(t *testing.T) {
	f := newFixture(t)
	f.svc.ShareBaseURL = "https://drafts.example.com/"
	assert.Equal(t, "https://drafts.example.com/share/abc", f.svc.ShareURL("abc"))
}

func TestResolveShare_HidesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: "L", ManualData: "x"})
	require.NoError(t, err)

	// completed but private
	private, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)

	// public but failed
	f.ai.err = errors.New("boom")
	failed, _ := f.svc.AnalyzeDraft(ctx, d.ID)
	_, err = f.svc.ShareAnalysis(ctx, failed.ID)
	require.NoError(t, err)

	for _, token := range []string{private.ShareToken, failed.ShareToken, "no-such-token", ""} {
		_, err := f.svc.ResolveShare(ctx, token)
		assert.ErrorIs(t, err, domain.ErrNotFound, token)
	}
}

func TestResolveShare_UnknownDraftTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: "L", ManualData: "x"})
	require.NoError(t, err)
	a, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)
	_, err = f.svc.ShareAnalysis(ctx, a.ID)
	require.NoError(t, err)

	f.svc.Drafts = emptyDrafts{}
	shared, err := f.svc.ResolveShare(ctx, a.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Draft", shared.DraftTitle)
}

type emptyDrafts struct{ domain.DraftRepository }

func (emptyDrafts) Get(context.Context, domain.ID) (*domain.Draft, error) {
	return nil, domain.ErrNotFound
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDraft(ctx, CreateDraftCommand{
		Title:      "Test League",
		ManualData: "QB: John Doe\nRB: Jane Roe",
	})
	require.NoError(t, err)

	a, err := f.svc.AnalyzeDraft(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, a.Status)
	assert.NotEmpty(t, *a.AnalysisText)

	link, err := f.svc.ShareAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, link.ShareURL, a.ShareToken)

	shared, err := f.svc.ResolveShare(ctx, a.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, "Test League", shared.DraftTitle)
	assert.Equal(t, *a.AnalysisText, shared.AnalysisText)
	assert.Equal(t, a.CreatedAt, shared.CreatedAt)
}

func TestListDrafts_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := f.svc.CreateDraft(ctx, CreateDraftCommand{Title: title, ManualData: "x"})
		require.NoError(t, err)
	}
	list, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "one", list[2].Title)
}
