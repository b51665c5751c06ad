// ABOUTME: JSON HTTP API for front desk tablets and dashboards
// ABOUTME: Routes touches, outcomes, duplicate checks, queue sync, and reports through chi
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/dedup"
	"github.com/harperreed/frontdesk/handlers"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/offline"
	"github.com/harperreed/frontdesk/outcome"
	"github.com/harperreed/frontdesk/reports"
)

const maxBodySize = 1 << 20

type Server struct {
	app    *app.App
	logger *log.Logger
	now    func() time.Time
}

func NewServer(a *app.App) *Server {
	return &Server{app: a, logger: a.Logger.WithPrefix("web"), now: time.Now}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/touches", s.handleLogTouch)
		r.Post("/followups/{id}/complete", s.handleQueueFollowUpComplete)
		r.Get("/followups/due", s.handleDueFollowUps)
		r.Post("/rebooks", s.handleQueueRebook)
		r.Post("/outcomes", s.handleUpdateOutcome)
		r.Get("/duplicates", s.handleFindDuplicates)
		r.Post("/leads/{id}/duplicate-check", s.handleLeadDuplicateCheck)
		r.Get("/queue", s.handleListQueue)
		r.Post("/queue/sync", s.handleRunSync)
		r.Get("/cache/status", s.handleCacheStatus)
		r.Get("/leaderboard", s.handleLeaderboard)
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, offline.ErrInvalidItem), errors.Is(err, outcome.ErrValidation):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, db.ErrConflict), errors.Is(err, offline.ErrSyncInProgress):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	code, errType := statusFor(err)
	httpError(w, code, errType, "%v", err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer func() { _ = r.Body.Close() }()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func (s *Server) staff(w http.ResponseWriter, explicit string) (string, bool) {
	by, err := s.app.Staff(explicit)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return "", false
	}
	return by, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"pending_count": s.app.Queue.GetPendingCount(),
	})
}

type touchRequest struct {
	offline.TouchPayload
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleLogTouch(w http.ResponseWriter, r *http.Request) {
	var req touchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	by, ok := s.staff(w, req.CreatedBy)
	if !ok {
		return
	}

	result, err := s.app.Touches.LogTouch(r.Context(), by, req.TouchPayload)
	if err != nil {
		writeErr(w, err)
		return
	}

	code := http.StatusCreated
	if result == offline.TouchQueued {
		code = http.StatusAccepted
	}
	writeJSON(w, code, map[string]any{
		"outcome":       result,
		"pending_count": s.app.Queue.GetPendingCount(),
	})
}

type followUpCompleteRequest struct {
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleQueueFollowUpComplete(w http.ResponseWriter, r *http.Request) {
	var req followUpCompleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	by, ok := s.staff(w, req.CreatedBy)
	if !ok {
		return
	}

	item, err := offline.NewFollowUpCompleteItem(by, offline.FollowUpCompletePayload{
		FollowUpID: chi.URLParam(r, "id"),
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	s.enqueue(w, item)
}

type rebookRequest struct {
	offline.RebookPayload
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleQueueRebook(w http.ResponseWriter, r *http.Request) {
	var req rebookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	by, ok := s.staff(w, req.CreatedBy)
	if !ok {
		return
	}
	if req.BookedBy == "" {
		req.BookedBy = by
	}

	item, err := offline.NewRebookItem(by, req.RebookPayload)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.enqueue(w, item)
}

func (s *Server) enqueue(w http.ResponseWriter, item offline.Item) {
	queued := s.app.Queue.Enqueue(item)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":            item.ID,
		"type":          item.Type,
		"queued":        queued,
		"pending_count": s.app.Queue.GetPendingCount(),
	})
}

func (s *Server) handleDueFollowUps(w http.ResponseWriter, r *http.Request) {
	today := s.now().Format(models.DateLayout)

	due, err := s.app.Store.ListDueFollowUps(r.Context(), today)
	if err == nil {
		if due == nil {
			due = []models.FollowUp{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"source": "live", "follow_ups": due})
		return
	}
	s.logger.Warn("follow-up fetch failed, reading cache", "err", err)

	cached, cacheErr := offline.ReadCache[[]models.FollowUp](s.app.Cache, offline.DatasetFollowUps)
	if cacheErr != nil || cached == nil {
		httpError(w, http.StatusServiceUnavailable, "api_error", "follow-ups unavailable: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":     "cache",
		"cached_at":  cached.CachedAt,
		"follow_ups": handlers.FilterDue(cached.Data, today),
	})
}

func (s *Server) handleUpdateOutcome(w http.ResponseWriter, r *http.Request) {
	var p outcome.Params
	if !decodeBody(w, r, &p) {
		return
	}
	by, ok := s.staff(w, p.EditedBy)
	if !ok {
		return
	}
	p.EditedBy = by
	if p.SourceComponent == "" {
		p.SourceComponent = "web"
	}

	res := s.app.ApplyOutcome(r.Context(), p)
	if !res.Success {
		code, _ := statusFor(res.Err)
		writeJSON(w, code, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFindDuplicates(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
		return
	}

	matches, err := s.app.Finder.Find(r.Context(), name)
	if err != nil {
		writeErr(w, err)
		return
	}
	if matches == nil {
		matches = []dedup.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleLeadDuplicateCheck(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Detector.CheckLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	items := s.app.Queue.GetQueue()
	if items == nil {
		items = []offline.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":         items,
		"pending_count": s.app.Queue.GetPendingCount(),
	})
}

func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Syncer.RunSync(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":        res,
		"pending_count": s.app.Queue.GetPendingCount(),
	})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Cache.Status()
	if err != nil {
		writeErr(w, err)
		return
	}
	last, err := s.app.Cache.LastCacheTime()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"last_cache_time": last,
		"datasets":        status,
		"pending_writes":  s.app.Queue.GetPendingCount(),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	from, to := handlers.MonthToDate(now)
	if v := r.URL.Query().Get("from"); v != "" {
		from = v
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to = v
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid date %q: expected YYYY-MM-DD", d)
			return
		}
	}

	entries, err := s.app.Reports.Leaderboard(r.Context(), from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	streaks, err := s.app.Reports.Streaks(r.Context(), now)
	if err != nil {
		writeErr(w, err)
		return
	}
	if entries == nil {
		entries = []reports.LeaderboardEntry{}
	}
	if streaks == nil {
		streaks = []reports.Streak{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":    from,
		"to":      to,
		"entries": entries,
		"streaks": streaks,
	})
}
