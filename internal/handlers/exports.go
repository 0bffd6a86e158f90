package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/leadflow-crm/api/internal/httpx"
)

// GetExportLeadsCSV streams the caller-visible leads as RFC 4180 CSV. The
// export is the round-trip counterpart of the import, so the header row uses
// the import's canonical column names.
func (s *Server) GetExportLeadsCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	leads, err := s.Q.ExportLeadsRows(r.Context(), actor.Scope())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to export leads", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"Name", "Phone", "Email", "Company", "Product", "Source",
		"Value", "Status", "Priority", "Assigned To", "Notes", "Created At",
	})
	for _, l := range leads {
		_ = writer.Write([]string{
			l.Name,
			l.Phone,
			l.Email,
			l.CompanyName,
			l.ProductName,
			l.SourceName,
			strconv.FormatFloat(l.LeadValue, 'f', -1, 64),
			l.Status,
			l.Priority,
			l.AssigneeName,
			l.Notes,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.Logger.Error("csv export write failed", "error", err)
	}
}
