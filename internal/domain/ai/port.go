package ai

import "context"

// DraftInput is what the completion client needs to analyse a draft.
type DraftInput struct {
	DraftData      string
	FileType       string
	TeamNames      []string
	AdditionalInfo string
}

type Client interface {
	Analyze(ctx context.Context, in DraftInput) (string, error)
}
