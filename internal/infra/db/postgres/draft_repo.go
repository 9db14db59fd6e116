package postgres

import (
    "context"
    "database/sql"
    "fmt"

    domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

type DraftRepository struct { db *sql.DB }

func NewDraftRepository(db *sql.DB) *DraftRepository { return &DraftRepository{db: db} }

const draftColumns = `id, title, draft_data, file_type, team_names, additional_info, created_at, updated_at`

// Create inserts a draft and fills in its ID
func (r *DraftRepository) Create(ctx context.Context, d *domain.Draft) error {
    const q = `
INSERT INTO drafts
  (title, draft_data, file_type, team_names, additional_info, created_at)
VALUES ($1,$2,$3,$4::jsonb,$5,$6)
RETURNING id;`
    teams, err := encodeTeamNames(d.TeamNames)
    if err != nil { return err }
    d.CreatedAt = nowIfZero(d.CreatedAt)

    var id int64
    if err := r.db.QueryRowContext(ctx, q,
        d.Title, d.DraftData, string(d.FileType), teams, d.AdditionalInfo, d.CreatedAt,
    ).Scan(&id); err != nil {
        return fmt.Errorf("insert draft: %w", err)
    }
    d.ID = domain.ID(id)
    return nil
}

// Get by ID
func (r *DraftRepository) Get(ctx context.Context, id domain.ID) (*domain.Draft, error) {
    const q = `SELECT ` + draftColumns + ` FROM drafts WHERE id=$1 LIMIT 1;`
    d, err := scanDraft(r.db.QueryRowContext(ctx, q, id))
    if err != nil { return nil, notFound(err) }
    return d, nil
}

// List returns all drafts ordered by created_at desc
func (r *DraftRepository) List(ctx context.Context) ([]*domain.Draft, error) {
    const q = `SELECT ` + draftColumns + ` FROM drafts ORDER BY created_at DESC, id DESC;`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()

    out := []*domain.Draft{}
    for rows.Next() {
        d, err := scanDraft(rows)
        if err != nil { return nil, err }
        out = append(out, d)
    }
    return out, rows.Err()
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
    var d domain.Draft
    var teams []byte
    var updated sql.NullTime
    if err := row.Scan(&d.ID, &d.Title, &d.DraftData, &d.FileType, &teams, &d.AdditionalInfo, &d.CreatedAt, &updated); err != nil {
        return nil, err
    }
    names, err := decodeTeamNames(teams)
    if err != nil { return nil, err }
    d.TeamNames = names
    d.UpdatedAt = timePtr(updated)
    return &d, nil
}
