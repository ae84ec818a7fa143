package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type categoryRow struct {
	Name, Amount string
	Width        int
	Negative     bool
}

type budgetRow struct {
	Category, Spent, Limit string
	Over                   bool
}

type transactionRow struct {
	ID       int64
	Date     string
	Amount   string
	Category string
	Note     string
	Negative bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		now := time.Now()
		slog.WarnContext(r.Context(), "Invalid month parameter", "year", year, "month", month, "corrected_to", int(now.Month()))
		month = int(now.Month())
	}

	summary, err := s.getSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary error", "error", err, "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error loading dashboard</div></section>`))
		return
	}

	items, err := s.getTransactions(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard transactions error", "error", err, "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error loading dashboard</div></section>`))
		return
	}

	// Side tables feed the budget check and the advice tips. Errors here
	// degrade those widgets instead of failing the whole partial.
	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets error", "error", err)
		budgets = nil
	}
	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards error", "error", err)
		cards = nil
	}
	subs, err := s.store.ListSubscriptions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List subscriptions error", "error", err)
		subs = nil
	}

	statuses := core.CompareBudgets(items, budgets, year, month)
	tips := services.Advise(summary, statuses, cards, subs)

	var maxCents int64
	for _, row := range summary.ByCategory {
		if abs := absCents(row.Amount.Cents); abs > maxCents {
			maxCents = abs
		}
	}

	var rows []categoryRow
	for _, cr := range summary.ByCategory {
		abs := absCents(cr.Amount.Cents)
		width := 0
		if maxCents > 0 && abs > 0 {
			width = int((abs*100 + maxCents/2) / maxCents)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		rows = append(rows, categoryRow{
			Name:     cr.Name,
			Amount:   formatDollars(cr.Amount.Cents),
			Width:    width,
			Negative: cr.Amount.Cents < 0,
		})
	}

	var budgetRows []budgetRow
	for _, st := range statuses {
		budgetRows = append(budgetRows, budgetRow{
			Category: st.Category,
			Spent:    formatDollars(st.Spent.Cents),
			Limit:    formatDollars(st.Limit.Cents),
			Over:     st.Over,
		})
	}

	var txRows []transactionRow
	for _, t := range items {
		txRows = append(txRows, transactionRow{
			ID:       t.ID,
			Date:     t.Date.String(),
			Amount:   formatDollars(t.Amount.Cents),
			Category: t.Category,
			Note:     template.HTMLEscapeString(t.Note),
			Negative: t.Amount.Cents < 0,
		})
	}

	data := struct {
		Year    int
		Month   int
		Income  string
		Expense string
		Net     string
		NetNeg  bool
		Rows    []categoryRow
		Budgets []budgetRow
		Tips    []string
		Items   []transactionRow
	}{
		Year:    summary.Year,
		Month:   summary.Month,
		Income:  formatDollars(summary.Income.Cents),
		Expense: formatDollars(summary.Expense.Cents),
		Net:     formatDollars(summary.Net.Cents),
		NetNeg:  summary.Net.Cents < 0,
		Rows:    rows,
		Budgets: budgetRows,
		Tips:    tips,
		Items:   txRows,
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html", "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error rendering dashboard</div></section>`))
	}
}

func absCents(c int64) int64 {
	if c < 0 {
		return -c
	}
	return c
}
