package memory

import (
	"errors"
	"time"

	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

var errDuplicateToken = errors.New("insert analysis: share token collision")

// newer orders by created_at desc, then id desc.
func newer(at time.Time, aID domain.ID, bt time.Time, bID domain.ID) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aID > bID
}

func cloneDraft(d domain.Draft) domain.Draft {
	d.TeamNames = append([]string{}, d.TeamNames...)
	d.UpdatedAt = copyTime(d.UpdatedAt)
	return d
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
