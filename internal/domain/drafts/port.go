package drafts

import "context"

// DraftRepository port (interface untuk persistence)
type DraftRepository interface {
	// Create inserts d and assigns d.ID.
	Create(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id ID) (*Draft, error)
	// List returns every draft, newest first.
	List(ctx context.Context) ([]*Draft, error)
}

// AnalysisRepository persists analyses. Get-style lookups return ErrNotFound.
type AnalysisRepository interface {
	// Create inserts a and assigns a.ID.
	Create(ctx context.Context, a *Analysis) error
	// Finish moves a pending analysis to its terminal status; ErrAlreadyFinished otherwise.
	Finish(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id ID) (*Analysis, error)
	ListByDraft(ctx context.Context, draftID ID) ([]*Analysis, error)
	MarkPublic(ctx context.Context, id ID) error
	// GetShared only matches public, completed analyses.
	GetShared(ctx context.Context, token string) (*Analysis, error)
}

// FileStore port (interface untuk penyimpanan upload)
type FileStore interface {
	// Save stores data under key and returns its location.
	Save(ctx context.Context, key string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}
