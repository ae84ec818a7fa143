package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// handleUpsertBudget sets the monthly budget for one category. Posting
// again for the same category replaces the previous limit.
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	category := sanitizeInput(r.Form.Get("category"))
	amountStr := strings.TrimSpace(r.Form.Get("monthly_budget"))

	if category == "" {
		UnprocessableEntityError("Category is required").Write(w)
		return
	}
	if strings.EqualFold(category, "Income") {
		UnprocessableEntityError("Budgets apply to spending categories only").Write(w)
		return
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil || amount.Cents < 0 {
		UnprocessableEntityError("Invalid budget amount").Write(w)
		return
	}

	budget := core.Budget{
		Category:      category,
		MonthlyBudget: amount,
	}
	if err := s.store.UpsertBudget(r.Context(), budget); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save budget",
			"error", err, "category", category, "component", "budget_handler", "operation", "upsert")
		InternalServerError("Error saving budget").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Budget saved",
		"category", category, "monthly_budget_cents", amount.Cents,
		"component", "budget_handler", "operation", "upsert")

	NewHTMXResponse().
		TriggerFormReset().
		TriggerBudgetsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Budget for %s set to %s", template.HTMLEscapeString(category), formatDollars(amount.Cents))).
		BodyString("").
		Write(w)
}

func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets error", "error", err)
		_, _ = w.Write([]byte(`<div id="budgets" class="budgets"><div class="placeholder">Error loading budgets</div></div>`))
		return
	}

	type row struct {
		Category string
		Limit    string
	}
	var rows []row
	for _, b := range budgets {
		rows = append(rows, row{
			Category: template.HTMLEscapeString(b.Category),
			Limit:    formatDollars(b.MonthlyBudget.Cents),
		})
	}

	data := struct {
		Items []row
	}{Items: rows}

	if err := s.templates.ExecuteTemplate(w, "budgets.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "budgets.html")
		_, _ = w.Write([]byte(`<div id="budgets" class="budgets"><div class="placeholder">Error rendering budgets</div></div>`))
	}
}
