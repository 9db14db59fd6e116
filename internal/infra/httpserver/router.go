package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	appdrafts "github.com/bryanwahyu/draft-analyzer/internal/application/drafts"
	domai "github.com/bryanwahyu/draft-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
	"github.com/bryanwahyu/draft-analyzer/internal/middleware"
)

// Version is reported by GET /.
const Version = "1.0.0"

// room for the non-file form fields on top of the upload limit
const formOverhead = 1 << 20

// Options carries everything the router needs besides the service.
type Options struct {
	AppName     string
	Debug       bool
	MaxFileSize int64
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	Checkers    map[string]middleware.HealthChecker
	Metrics     *middleware.Metrics
	Log         *slog.Logger
}

type Router struct {
	drafts *appdrafts.Service
	opts   Options
	log    *slog.Logger
}

func NewRouter(drafts *appdrafts.Service, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	r := &Router{drafts: drafts, opts: opts, log: opts.Log}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(r.log))
	mux.Use(chimw.Recoverer)
	mux.Use(opts.Metrics.Middleware)
	mux.Use(chimw.StripSlashes)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/", middleware.InfoHandler(opts.AppName, Version))
	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/drafts", r.wrap(r.handleCreateDraft))
		rt.Get("/drafts", r.wrap(r.handleListDrafts))
		rt.Get("/drafts/{id}", r.wrap(r.handleGetDraft))
		rt.Get("/drafts/{id}/analyses", r.wrap(r.handleListAnalyses))
		rt.Group(func(limited chi.Router) {
			if opts.Limiter != nil {
				limited.Use(middleware.RateLimit(opts.Limiter))
			}
			limited.Post("/drafts/{id}/analyze", r.wrap(r.handleAnalyze))
		})

		rt.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis))
		rt.Post("/analyses/{id}/share", r.wrap(r.handleShare))
		rt.Get("/share/{token}", r.wrap(r.handleResolveShare))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks input the handler itself rejected
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.writeError(w, req, err)
		}
	}
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var (
		maxBytes *http.MaxBytesError
		bad      badRequest
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
	case errors.Is(err, domain.ErrMissingInput), errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	case errors.Is(err, domain.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": err.Error()})
	case errors.As(err, &maxBytes):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"detail": fmt.Sprintf("%v: request body exceeds %d bytes", domain.ErrFileTooLarge, maxBytes.Limit),
		})
	default:
		ref := uuid.NewString()
		r.log.ErrorContext(req.Context(), "request failed",
			"reference", ref,
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", chimw.GetReqID(req.Context()),
			"error", err,
		)
		detail := "internal server error"
		if r.opts.Debug {
			detail = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": detail, "reference": ref})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// named prefixes a not-found error with the missing resource
func named(what string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s %w", what, err)
	}
	return err
}

func idParam(req *http.Request) (domain.ID, error) {
	id, err := middleware.ValidateID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, badRequest{msg: err.Error()}
	}
	return domain.ID(id), nil
}

// POST /api/drafts
// multipart: title, team_names, additional_info, file, manual_data
func (r *Router) handleCreateDraft(w http.ResponseWriter, req *http.Request) error {
	if r.opts.MaxFileSize > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxFileSize+formOverhead)
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if strings.Contains(err.Error(), "request body too large") {
			return fmt.Errorf("%w: request body too large", domain.ErrFileTooLarge)
		}
		return badRequest{msg: fmt.Sprintf("invalid form: %v", err)}
	}

	title, err := middleware.ValidateTitle(req.FormValue("title"))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMissingInput, err)
	}

	cmd := appdrafts.CreateDraftCommand{
		Title:          title,
		TeamNames:      middleware.SanitizeString(req.FormValue("team_names")),
		AdditionalInfo: req.FormValue("additional_info"),
		ManualData:     req.FormValue("manual_data"),
	}

	file, header, err := req.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload, err := r.readUpload(file, header)
		if err != nil {
			return err
		}
		cmd.File = upload
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return badRequest{msg: fmt.Sprintf("invalid file: %v", err)}
	}

	d, err := r.drafts.CreateDraft(req.Context(), cmd)
	if err != nil {
		return err
	}
	r.opts.Metrics.DraftCreated()
	return writeJSON(w, http.StatusOK, d)
}

func (r *Router) readUpload(file multipart.File, header *multipart.FileHeader) (*appdrafts.Upload, error) {
	if r.opts.MaxFileSize > 0 && header.Size > r.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: file size exceeds limit of %d bytes", domain.ErrFileTooLarge, r.opts.MaxFileSize)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &appdrafts.Upload{
		Filename: middleware.SanitizeFilename(header.Filename),
		Data:     data,
	}, nil
}

// GET /api/drafts
func (r *Router) handleListDrafts(w http.ResponseWriter, req *http.Request) error {
	list, err := r.drafts.ListDrafts(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/drafts/{id}
func (r *Router) handleGetDraft(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	d, err := r.drafts.GetDraft(req.Context(), id)
	if err != nil {
		return named("draft", err)
	}
	return writeJSON(w, http.StatusOK, d)
}

// POST /api/drafts/{id}/analyze
// Blocks until the completion returns or times out.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	a, err := r.drafts.AnalyzeDraft(req.Context(), id)
	err = named("draft", err)
	if a != nil {
		r.opts.Metrics.AnalysisFinished(err == nil, errors.Is(err, domai.ErrQuotaExceeded))
	}
	if err != nil {
		if a != nil {
			return fmt.Errorf("analysis %d failed: %w", a.ID, err)
		}
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /api/drafts/{id}/analyses
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	list, err := r.drafts.ListAnalyses(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	a, err := r.drafts.GetAnalysis(req.Context(), id)
	if err != nil {
		return named("analysis", err)
	}
	return writeJSON(w, http.StatusOK, a)
}

// POST /api/analyses/{id}/share
func (r *Router) handleShare(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	link, err := r.drafts.ShareAnalysis(req.Context(), id)
	if err != nil {
		return named("analysis", err)
	}
	return writeJSON(w, http.StatusOK, link)
}

// GET /api/share/{token}
func (r *Router) handleResolveShare(w http.ResponseWriter, req *http.Request) error {
	shared, err := r.drafts.ResolveShare(req.Context(), chi.URLParam(req, "token"))
	if err != nil {
		return named("shared analysis", err)
	}
	return writeJSON(w, http.StatusOK, shared)
}
