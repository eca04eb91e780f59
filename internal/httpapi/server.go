package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/domain"
	apimw "github.com/hamed0406/uplinkwatch/internal/httpapi/middleware"
	"github.com/hamed0406/uplinkwatch/internal/repo"
)

// StatusSource is the runner's face toward the API: the latest completed
// assessment and a way to request an immediate cycle.
type StatusSource interface {
	Latest() (domain.HealthAssessment, bool)
	Trigger()
}

// SnapshotSource exposes the governor's current view.
type SnapshotSource interface {
	Snapshot(ctx context.Context, now time.Time) (domain.RecoverySnapshot, error)
}

type Server struct {
	Logger      *zap.Logger
	Status      StatusSource
	Recovery    SnapshotSource
	Assessments repo.AssessmentStore
	Hub         *Hub
}

func NewServer(l *zap.Logger, status StatusSource, rec SnapshotSource, as repo.AssessmentStore, hub *Hub) *Server {
	return &Server{Logger: l, Status: status, Recovery: rec, Assessments: as, Hub: hub}
}

type RateLimits struct {
	PublicRPM   int
	PublicBurst int
	AdminRPM    int
	AdminBurst  int
}

func (s *Server) Router(keys apimw.Keys, rl RateLimits) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(rl.PublicRPM, rl.PublicBurst))
		r.Get("/api/health", s.handleHealth)
		r.Get("/api/health/history", s.handleHistory)
		r.Get("/api/recovery", s.handleRecovery)
		r.Get("/ws/health", s.handleWS)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(rl.AdminRPM, rl.AdminBurst))
		r.Post("/api/check", s.handleCheck)
	})

	return r
}

// assessmentView is the wire shape: confidence as a 0-100 percentage.
type assessmentView struct {
	Verdict    domain.Verdict                             `json:"verdict"`
	Confidence float64                                    `json:"confidence"`
	Categories map[domain.Category]domain.CategoryOutcome `json:"categories"`
	Failed     []domain.CheckResult                       `json:"failed,omitempty"`
	CheckedAt  time.Time                                  `json:"checked_at"`
}

func viewOf(a domain.HealthAssessment) assessmentView {
	return assessmentView{
		Verdict:    a.Verdict,
		Confidence: a.Percent(),
		Categories: a.Categories,
		Failed:     a.Failed,
		CheckedAt:  a.CheckedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	a, ok := s.Status.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no assessment yet"})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(a))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	rows, err := s.Assessments.History(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("history_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	views := make([]assessmentView, len(rows))
	for i, a := range rows {
		views[i] = viewOf(a)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Recovery.Snapshot(r.Context(), time.Now().UTC())
	if err != nil {
		s.Logger.Warn("recovery_snapshot_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "state unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.Status.Trigger()
	s.Logger.Info("manual_check_triggered")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "check scheduled"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "websocket disabled", http.StatusNotImplemented)
		return
	}
	s.Hub.Serve(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
