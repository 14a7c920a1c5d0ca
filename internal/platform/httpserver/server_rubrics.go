package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	rubricerrors "intelligrade/contexts/assessment-core/rubric-service/domain/errors"
	rubrichttp "intelligrade/contexts/assessment-core/rubric-service/transport/http"

	"github.com/go-playground/validator/v10"
)

func (s *Server) handleCreateRubric(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req rubrichttp.CreateRubricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRubricError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rubrics.Handler.CreateRubricHandler(r.Context(), userID, role, req)
	if err != nil {
		writeRubricDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateRubric(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req rubrichttp.UpdateRubricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRubricError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rubrics.Handler.UpdateRubricHandler(r.Context(), userID, role, r.PathValue("rubric_id"), req)
	if err != nil {
		writeRubricDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRubricActive(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req rubrichttp.SetRubricActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRubricError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rubrics.Handler.SetRubricActiveHandler(r.Context(), userID, role, r.PathValue("rubric_id"), req)
	if err != nil {
		writeRubricDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRubric(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rubrics.Handler.GetRubricHandler(r.Context(), r.PathValue("rubric_id"))
	if err != nil {
		writeRubricDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRubrics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.rubrics.Handler.ListRubricsHandler(
		r.Context(),
		query.Get("teacher_id"),
		query.Get("active_only") == "true",
	)
	if err != nil {
		writeRubricDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRubricDomainError(w http.ResponseWriter, err error) {
	var validationErr validator.ValidationErrors
	switch {
	case errors.As(err, &validationErr):
		writeRubricError(w, http.StatusBadRequest, "invalid_payload", err.Error())
	case errors.Is(err, rubricerrors.ErrRubricNotFound):
		writeRubricError(w, http.StatusNotFound, "rubric_not_found", err.Error())
	case errors.Is(err, rubricerrors.ErrInvalidRubricInput),
		errors.Is(err, rubricerrors.ErrEmptySections),
		errors.Is(err, rubricerrors.ErrDuplicateSectionName),
		errors.Is(err, rubricerrors.ErrZeroTotalMarks):
		writeRubricError(w, http.StatusBadRequest, "invalid_rubric", err.Error())
	case errors.Is(err, rubricerrors.ErrUnauthorizedActor):
		writeRubricError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, rubricerrors.ErrActorNotPermitted):
		writeRubricError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeRubricError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRubricError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rubrichttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// requireIdentity reads the gateway-forwarded identity headers. Requests
// without a user id are rejected before any handler runs.
func requireIdentity(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRubricError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", "", false
	}
	return userID, r.Header.Get("X-User-Role"), true
}
