package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/importer"
	"github.com/leadflow-crm/api/internal/middleware"
)

// PostAdminLeadsImport ingests a CSV upload and assigns every inserted lead
// to the requested user. Row problems come back in the summary; only an
// unusable file or a store failure produces an error status.
func (s *Server) PostAdminLeadsImport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(s.Config.ImportMaxFileBytes); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Request must be multipart form data", nil)
		return
	}

	rawAssignee := r.FormValue("assignedTo")
	file, _, err := r.FormFile("file")
	if err != nil || rawAssignee == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "CSV file and assigned user are required", nil)
		return
	}
	defer file.Close()

	assignedTo, err := uuid.Parse(rawAssignee)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "assignedTo must be a valid user id", nil)
		return
	}
	assignee, err := s.Q.GetUserByID(r.Context(), assignedTo)
	if err != nil {
		if isNoRows(err) {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Assigned user not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load assigned user", nil)
		return
	}
	if !assignee.IsActive {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Assigned user is not active", nil)
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, s.Config.ImportMaxFileBytes+1))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Failed to read CSV file", nil)
		return
	}
	if int64(len(content)) > s.Config.ImportMaxFileBytes {
		httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "validation_error", "CSV file is too large", nil)
		return
	}

	summary, err := s.Importer.Import(r.Context(), string(content), assignedTo, actor.UserID)
	if err != nil {
		var ve *importer.ValidationError
		if errors.As(err, &ve) {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", ve.Message, nil)
			return
		}
		s.Logger.Error("csv import failed", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to import leads", nil)
		return
	}

	middleware.RecordImportOutcome(summary.Count, summary.Skipped)

	actorID := actor.UserID
	s.Audit.Record(r.Context(), audit.Entry{
		ActorID:    &actorID,
		Action:     "lead.import",
		EntityType: "lead",
		Meta: map[string]any{
			"count":      summary.Count,
			"skipped":    summary.Skipped,
			"total":      summary.Total,
			"assignedTo": assignedTo.String(),
		},
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "CSV upload completed",
		"count":   summary.Count,
		"skipped": summary.Skipped,
		"errors":  summary.Errors,
		"total":   summary.Total,
	})
}
