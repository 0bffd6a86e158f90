package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/store"
)

type Pipeline struct {
	store   Store
	log     *slog.Logger
	maxRows int
}

func NewPipeline(s Store, log *slog.Logger, maxRows int) *Pipeline {
	return &Pipeline{store: s, log: log, maxRows: maxRows}
}

// Summary reports one import run. Count + Skipped always equals Total.
type Summary struct {
	Count   int      `json:"count"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
	Total   int      `json:"total"`
}

// Import parses csvText and inserts every valid row as a lead assigned to
// assignedTo and created by actingUser. Row failures are collected into the
// summary; the batch insert is all-or-nothing.
func (p *Pipeline) Import(ctx context.Context, csvText string, assignedTo, actingUser uuid.UUID) (Summary, error) {
	lines := nonEmptyLines(csvText)
	if len(lines) < 2 {
		return Summary{}, &ValidationError{Message: "CSV file must contain at least a header row and one data row"}
	}
	if p.maxRows > 0 && len(lines)-1 > p.maxRows {
		return Summary{}, &ValidationError{Message: fmt.Sprintf("CSV file exceeds the maximum of %d data rows", p.maxRows)}
	}

	cols := MapColumns(strings.Split(lines[0], ","))

	resolver := newEntityResolver(p.store, actingUser)
	if err := resolver.bootstrap(ctx); err != nil {
		return Summary{}, err
	}

	summary := Summary{Errors: []string{}, Total: len(lines) - 1}
	batch := make([]store.CreateLeadParams, 0, summary.Total)

	for i := 1; i < len(lines); i++ {
		values := splitRow(lines[i])
		rowNum := i + 1

		name := fieldAt(values, cols.Name)
		phone := fieldAt(values, cols.Phone)
		if cols.Name == -1 || cols.Phone == -1 || name == "" || phone == "" {
			summary.Errors = append(summary.Errors, (&RowError{Row: rowNum, Reason: "Missing required name or phone"}).Error())
			summary.Skipped++
			continue
		}

		productID, err := resolver.resolve(ctx, store.EntityProduct, fieldAt(values, cols.ProductInterest))
		if err != nil {
			return Summary{}, err
		}
		sourceID, err := resolver.resolve(ctx, store.EntitySource, fieldAt(values, cols.Source))
		if err != nil {
			return Summary{}, err
		}
		if productID == uuid.Nil || sourceID == uuid.Nil {
			summary.Errors = append(summary.Errors, (&RowError{Row: rowNum, Reason: "Could not find valid product or source"}).Error())
			summary.Skipped++
			continue
		}

		batch = append(batch, store.CreateLeadParams{
			Name:        name,
			Phone:       phone,
			Email:       fieldAt(values, cols.Email),
			CompanyName: fieldAt(values, cols.CompanyName),
			ProductID:   productID,
			SourceID:    sourceID,
			LeadValue:   parseLeadValue(fieldAt(values, cols.LeadValue)),
			AssignedTo:  assignedTo,
			Priority:    normalizePriority(fieldAt(values, cols.Priority)),
			Notes:       fieldAt(values, cols.Notes),
			CreatedBy:   actingUser,
		})
		summary.Count++
	}

	if len(batch) > 0 {
		if _, err := p.store.BulkInsertLeads(ctx, batch); err != nil {
			return Summary{}, &PersistenceError{Op: "bulk insert leads", Err: err}
		}
	}

	p.log.Info("csv_import",
		"inserted", summary.Count,
		"skipped", summary.Skipped,
		"total", summary.Total,
		"assigned_to", assignedTo.String(),
	)
	return summary, nil
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
