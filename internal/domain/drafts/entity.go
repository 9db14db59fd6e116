package drafts

import (
	"time"
)

// ID tipe untuk Draft dan Analysis
type ID int64

// FileType enum
type FileType string

const (
	FileTypeText   FileType = "text"
	FileTypeCSV    FileType = "csv"
	FileTypeManual FileType = "manual"
)

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Aggregate Root: Draft
type Draft struct {
	ID             ID         `json:"id"`
	Title          string     `json:"title"`
	DraftData      string     `json:"draft_data"`
	FileType       FileType   `json:"file_type"`
	TeamNames      []string   `json:"team_names"`
	AdditionalInfo string     `json:"additional_info"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// Analysis is owned by a Draft. Status moves from pending to
// completed or failed exactly once.
type Analysis struct {
	ID           ID         `json:"id"`
	DraftID      ID         `json:"draft_id"`
	AnalysisText *string    `json:"analysis_text"`
	Status       Status     `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	ShareToken   string     `json:"share_token"`
	IsPublic     bool       `json:"is_public"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// Shareable reports whether the analysis may be served through its share token.
func (a *Analysis) Shareable() bool {
	return a.IsPublic && a.Status == StatusCompleted
}

// SharedAnalysis is the public view of an analysis; it carries no identifiers.
type SharedAnalysis struct {
	AnalysisText string    `json:"analysis_text"`
	DraftTitle   string    `json:"draft_title"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShareLink returned by the share action
type ShareLink struct {
	ShareURL string `json:"share_url"`
}
