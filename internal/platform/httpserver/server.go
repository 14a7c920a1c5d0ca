package httpserver

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"

	gradingservice "intelligrade/contexts/assessment-core/grading-service"
	rubricservice "intelligrade/contexts/assessment-core/rubric-service"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed doc.json
var openapiDoc []byte

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	rubrics rubricservice.Module
	grading gradingservice.Module
}

func New(
	rubrics rubricservice.Module,
	grading gradingservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		rubrics: rubrics,
		grading: grading,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openapiDoc)
	})
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/rubrics/v1/rubrics", s.handleCreateRubric)
	s.mux.HandleFunc("GET /api/rubrics/v1/rubrics", s.handleListRubrics)
	s.mux.HandleFunc("GET /api/rubrics/v1/rubrics/{rubric_id}", s.handleGetRubric)
	s.mux.HandleFunc("PUT /api/rubrics/v1/rubrics/{rubric_id}", s.handleUpdateRubric)
	s.mux.HandleFunc("POST /api/rubrics/v1/rubrics/{rubric_id}/active", s.handleSetRubricActive)

	s.mux.HandleFunc("POST /api/grading/v1/submissions", s.handleCreateSubmission)
	s.mux.HandleFunc("GET /api/grading/v1/submissions", s.handleListSubmissions)
	s.mux.HandleFunc("GET /api/grading/v1/submissions/{submission_id}", s.handleGetSubmission)
	s.mux.HandleFunc("POST /api/grading/v1/submissions/{submission_id}/rubric", s.handleAssignRubric)
	s.mux.HandleFunc("POST /api/grading/v1/submissions/{submission_id}/grade", s.handleTriggerGrade)
	s.mux.HandleFunc("GET /api/grading/v1/results/{result_id}", s.handleGetResult)
	s.mux.HandleFunc("POST /api/grading/v1/results/{result_id}/override", s.handleSaveOverride)
	s.mux.HandleFunc("GET /api/grading/v1/dashboard", s.handleDashboardSummary)
	s.mux.HandleFunc("GET /api/grading/v1/analytics", s.handleClassAnalytics)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
