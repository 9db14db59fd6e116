// Package memory keeps drafts and analyses in process memory. It backs the
// memory:// database URL and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

// Store holds both tables so analyses can be checked against drafts the way a
// foreign key would.
type Store struct {
	mu        sync.RWMutex
	drafts    map[domain.ID]domain.Draft
	analyses  map[domain.ID]domain.Analysis
	nextDraft domain.ID
	nextAnal  domain.ID
}

func NewStore() *Store {
	return &Store{
		drafts:   make(map[domain.ID]domain.Draft),
		analyses: make(map[domain.ID]domain.Analysis),
	}
}

// Drafts returns the DraftRepository view of the store.
func (s *Store) Drafts() *DraftRepository { return &DraftRepository{s: s} }

// Analyses returns the AnalysisRepository view of the store.
func (s *Store) Analyses() *AnalysisRepository { return &AnalysisRepository{s: s} }

// Counts reports the number of stored drafts and analyses.
func (s *Store) Counts() (drafts, analyses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts), len(s.analyses)
}

type DraftRepository struct{ s *Store }

func (r *DraftRepository) Create(_ context.Context, d *domain.Draft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextDraft++
	d.ID = r.s.nextDraft
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.TeamNames == nil {
		d.TeamNames = []string{}
	}
	r.s.drafts[d.ID] = cloneDraft(*d)
	return nil
}

func (r *DraftRepository) Get(_ context.Context, id domain.ID) (*domain.Draft, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.drafts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneDraft(d)
	return &out, nil
}

func (r *DraftRepository) List(_ context.Context) ([]*domain.Draft, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Draft, 0, len(r.s.drafts))
	for _, d := range r.s.drafts {
		c := cloneDraft(d)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

type AnalysisRepository struct{ s *Store }

func (r *AnalysisRepository) Create(_ context.Context, a *domain.Analysis) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drafts[a.DraftID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.analyses {
		if existing.ShareToken == a.ShareToken {
			return errDuplicateToken
		}
	}
	r.s.nextAnal++
	a.ID = r.s.nextAnal
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.s.analyses[a.ID] = *a
	return nil
}

func (r *AnalysisRepository) Finish(_ context.Context, a *domain.Analysis) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.analyses[a.ID]
	if !ok || cur.Status != domain.StatusPending {
		return domain.ErrAlreadyFinished
	}
	cur.Status = a.Status
	cur.AnalysisText = copyString(a.AnalysisText)
	cur.ErrorMessage = copyString(a.ErrorMessage)
	cur.UpdatedAt = copyTime(a.UpdatedAt)
	r.s.analyses[a.ID] = cur
	return nil
}

func (r *AnalysisRepository) Get(_ context.Context, id domain.ID) (*domain.Analysis, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *AnalysisRepository) ListByDraft(_ context.Context, draftID domain.ID) ([]*domain.Analysis, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Analysis{}
	for _, a := range r.s.analyses {
		if a.DraftID == draftID {
			c := a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (r *AnalysisRepository) MarkPublic(_ context.Context, id domain.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.analyses[id]
	if !ok || a.IsPublic {
		return nil
	}
	now := time.Now().UTC()
	a.IsPublic = true
	a.UpdatedAt = &now
	r.s.analyses[id] = a
	return nil
}

func (r *AnalysisRepository) GetShared(_ context.Context, token string) (*domain.Analysis, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.analyses {
		if a.ShareToken == token && a.Shareable() {
			c := a
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}
