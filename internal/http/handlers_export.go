package http

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// handleExport streams one table as a CSV download. The table name comes
// from the path: /export/transactions.csv, /export/cards.csv, and so on.
// Amounts are exported as decimal strings, not cents.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/export/")
	name = strings.TrimSuffix(name, ".csv")

	var (
		header  []string
		records [][]string
	)

	switch name {
	case "transactions":
		items, err := s.store.ReadTransactions(r.Context())
		if err != nil {
			s.exportError(w, r, name, err)
			return
		}
		header = []string{"id", "date", "amount", "category", "note"}
		for _, t := range items {
			records = append(records, []string{
				strconv.FormatInt(t.ID, 10),
				t.Date.String(),
				t.Amount.String(),
				t.Category,
				t.Note,
			})
		}
	case "subscriptions":
		items, err := s.store.ListSubscriptions(r.Context())
		if err != nil {
			s.exportError(w, r, name, err)
			return
		}
		header = []string{"id", "name", "amount", "cadence", "next_charge_date", "category"}
		for _, sub := range items {
			records = append(records, []string{
				strconv.FormatInt(sub.ID, 10),
				sub.Name,
				sub.Amount.String(),
				string(sub.Cadence),
				sub.NextChargeDate.String(),
				sub.Category,
			})
		}
	case "cards":
		items, err := s.store.ListCards(r.Context())
		if err != nil {
			s.exportError(w, r, name, err)
			return
		}
		header = []string{"id", "name", "limit", "balance"}
		for _, c := range items {
			records = append(records, []string{
				strconv.FormatInt(c.ID, 10),
				c.Name,
				c.Limit.String(),
				c.Balance.String(),
			})
		}
	case "goals":
		items, err := s.store.ListGoals(r.Context())
		if err != nil {
			s.exportError(w, r, name, err)
			return
		}
		header = []string{"id", "name", "target_amount", "target_date", "current_saved"}
		for _, g := range items {
			records = append(records, []string{
				strconv.FormatInt(g.ID, 10),
				g.Name,
				g.TargetAmount.String(),
				g.TargetDate.String(),
				g.CurrentSaved.String(),
			})
		}
	case "budgets":
		items, err := s.store.ListBudgets(r.Context())
		if err != nil {
			s.exportError(w, r, name, err)
			return
		}
		header = []string{"category", "monthly_budget"}
		for _, b := range items {
			records = append(records, []string{
				b.Category,
				b.MonthlyBudget.String(),
			})
		}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		slog.ErrorContext(r.Context(), "CSV export write error", "error", err, "table", name)
		return
	}
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			slog.ErrorContext(r.Context(), "CSV export write error", "error", err, "table", name)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV export flush error", "error", err, "table", name)
	}

	slog.InfoContext(r.Context(), "Exported table",
		"table", name, "rows", len(records), "component", "export_handler")
}

func (s *Server) exportError(w http.ResponseWriter, r *http.Request, table string, err error) {
	slog.ErrorContext(r.Context(), "Export read error", "error", err, "table", table)
	http.Error(w, "Export failed", http.StatusInternalServerError)
}
