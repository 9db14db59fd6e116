package drafts

import "errors"

var (
	// ErrNotFound is returned when a draft, analysis or share token does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrMissingInput indicates a required ingestion field is absent.
	ErrMissingInput = errors.New("missing input")

	// ErrFileTooLarge indicates an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrAlreadyFinished is returned when finishing an analysis that is no longer pending.
	ErrAlreadyFinished = errors.New("analysis already finished")
)
