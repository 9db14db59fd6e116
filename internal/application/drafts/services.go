package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/draft-analyzer/internal/application"
	domai "github.com/bryanwahyu/draft-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

const unknownDraftTitle = "Unknown Draft"

// Analyzer runs one completion for a draft.
type Analyzer interface {
	Analyze(ctx context.Context, in domai.DraftInput) (string, error)
}

// Service implements use-cases untuk Draft dan Analysis
type Service struct {
	Drafts   domain.DraftRepository
	Analyses domain.AnalysisRepository
	Files    domain.FileStore
	AI       Analyzer
	Clock    application.Clock
	Log      *slog.Logger

	// MaxFileSize is the upload limit in bytes; zero disables the check.
	MaxFileSize int64
	// ShareBaseURL is prepended to /share/<token>; empty yields a relative link.
	ShareBaseURL string
	// NewToken generates share tokens; defaults to a random UUID.
	NewToken func() string
}

//
// ==== USE CASES ====
//

// Upload is a file received with a draft submission.
type Upload struct {
	Filename string
	Data     []byte
}

// CreateDraftCommand untuk ingestion
type CreateDraftCommand struct {
	Title          string
	TeamNames      string // JSON array or comma separated
	AdditionalInfo string
	File           *Upload
	ManualData     string
}

// CreateDraft normalises a submission into a stored Draft. A non-empty file
// takes precedence over manual data.
func (s *Service) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (*domain.Draft, error) {
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrMissingInput)
	}

	d := &domain.Draft{
		Title:          cmd.Title,
		TeamNames:      ParseTeamNames(cmd.TeamNames),
		AdditionalInfo: cmd.AdditionalInfo,
		CreatedAt:      s.Clock.Now(),
	}

	var storedKey string
	switch {
	case cmd.File != nil && len(cmd.File.Data) > 0:
		if s.MaxFileSize > 0 && int64(len(cmd.File.Data)) > s.MaxFileSize {
			return nil, fmt.Errorf("%w: file size exceeds limit of %d bytes", domain.ErrFileTooLarge, s.MaxFileSize)
		}
		if !utf8.Valid(cmd.File.Data) {
			return nil, fmt.Errorf("decode %s: file is not valid UTF-8 text", cmd.File.Filename)
		}
		d.FileType = ClassifyFile(cmd.File.Filename)
		d.DraftData = string(cmd.File.Data)

		storedKey = fmt.Sprintf("%s_%s", uuid.New().String(), cmd.File.Filename)
		loc, err := s.Files.Save(ctx, storedKey, cmd.File.Data)
		if err != nil {
			return nil, fmt.Errorf("store upload: %w", err)
		}
		s.logger().InfoContext(ctx, "upload stored", "key", storedKey, "location", loc, "bytes", len(cmd.File.Data))

	case cmd.ManualData != "":
		d.FileType = domain.FileTypeManual
		d.DraftData = cmd.ManualData

	default:
		return nil, fmt.Errorf("%w: either file or manual data must be provided", domain.ErrMissingInput)
	}

	if err := s.Drafts.Create(ctx, d); err != nil {
		if storedKey != "" {
			if rmErr := s.Files.Remove(context.WithoutCancel(ctx), storedKey); rmErr != nil {
				s.logger().WarnContext(ctx, "failed to remove orphaned upload", "key", storedKey, "error", rmErr)
			}
		}
		return nil, err
	}
	return d, nil
}

// AnalyzeDraft stores a pending Analysis, runs the completion and records
// the outcome on the row. On failure the failed row is returned together
// with the error.
func (s *Service) AnalyzeDraft(ctx context.Context, draftID domain.ID) (*domain.Analysis, error) {
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	a := &domain.Analysis{
		DraftID:    d.ID,
		Status:     domain.StatusPending,
		ShareToken: s.newToken(),
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Analyses.Create(ctx, a); err != nil {
		return nil, err
	}

	text, err := s.AI.Analyze(ctx, domai.DraftInput{
		DraftData:      d.DraftData,
		FileType:       string(d.FileType),
		TeamNames:      d.TeamNames,
		AdditionalInfo: d.AdditionalInfo,
	})

	// the outcome is persisted even if the caller has gone away
	finishCtx := context.WithoutCancel(ctx)
	now := s.Clock.Now()
	a.UpdatedAt = &now
	if err != nil {
		msg := err.Error()
		a.Status = domain.StatusFailed
		a.ErrorMessage = &msg
		if ferr := s.Analyses.Finish(finishCtx, a); ferr != nil {
			return a, errors.Join(err, fmt.Errorf("record failure: %w", ferr))
		}
		s.logger().WarnContext(ctx, "analysis failed", "analysis_id", a.ID, "draft_id", d.ID, "error", err)
		return a, err
	}

	a.Status = domain.StatusCompleted
	a.AnalysisText = &text
	if err := s.Analyses.Finish(finishCtx, a); err != nil {
		return a, fmt.Errorf("record completion: %w", err)
	}
	s.logger().InfoContext(ctx, "analysis completed", "analysis_id", a.ID, "draft_id", d.ID, "chars", len(text))
	return a, nil
}

// ShareAnalysis marks an analysis public and returns its share link.
// Calling it again changes nothing.
func (s *Service) ShareAnalysis(ctx context.Context, id domain.ID) (*domain.ShareLink, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Analyses.MarkPublic(ctx, id); err != nil {
		return nil, err
	}
	return &domain.ShareLink{ShareURL: s.ShareURL(a.ShareToken)}, nil
}

// ShareURL builds the public link for a token.
func (s *Service) ShareURL(token string) string {
	return strings.TrimRight(s.ShareBaseURL, "/") + "/share/" + token
}

// ResolveShare returns the public view of a shared analysis. Unknown,
// private and unfinished analyses all report ErrNotFound.
func (s *Service) ResolveShare(ctx context.Context, token string) (*domain.SharedAnalysis, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	a, err := s.Analyses.GetShared(ctx, token)
	if err != nil {
		return nil, err
	}
	if !a.Shareable() {
		return nil, domain.ErrNotFound
	}

	title := unknownDraftTitle
	d, err := s.Drafts.Get(ctx, a.DraftID)
	switch {
	case err == nil:
		title = d.Title
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, err
	}

	out := &domain.SharedAnalysis{DraftTitle: title, CreatedAt: a.CreatedAt}
	if a.AnalysisText != nil {
		out.AnalysisText = *a.AnalysisText
	}
	return out, nil
}

// ListDrafts newest first
func (s *Service) ListDrafts(ctx context.Context) ([]*domain.Draft, error) {
	return s.Drafts.List(ctx)
}

// GetDraft ambil 1 draft by id
func (s *Service) GetDraft(ctx context.Context, id domain.ID) (*domain.Draft, error) {
	return s.Drafts.Get(ctx, id)
}

// GetAnalysis ambil 1 analysis by id
func (s *Service) GetAnalysis(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	return s.Analyses.Get(ctx, id)
}

// ListAnalyses returns a draft's analyses, newest first. An unknown draft
// simply has none.
func (s *Service) ListAnalyses(ctx context.Context, draftID domain.ID) ([]*domain.Analysis, error) {
	return s.Analyses.ListByDraft(ctx, draftID)
}

// ParseTeamNames accepts a JSON array of strings, falling back to a comma
// separated list.
func ParseTeamNames(raw string) []string {
	names := []string{}
	if strings.TrimSpace(raw) == "" {
		return names
	}
	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		if decoded == nil {
			return names
		}
		return decoded
	}
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ClassifyFile maps an upload name to its file type.
func ClassifyFile(filename string) domain.FileType {
	if strings.HasSuffix(filename, ".csv") {
		return domain.FileTypeCSV
	}
	return domain.FileTypeText
}

func (s *Service) newToken() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.New().String()
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
