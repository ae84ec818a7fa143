package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	data := struct {
		Today                  string
		Year                   int
		Month                  int
		Categories             []string
		SubscriptionCategories []string
		BudgetCategories       []string
		Cadences               []string
	}{
		Today:                  now.Format("2006-01-02"),
		Year:                   now.Year(),
		Month:                  int(now.Month()),
		Categories:             s.taxonomy.Categories,
		SubscriptionCategories: s.taxonomy.SubscriptionCategories,
		BudgetCategories:       s.taxonomy.BudgetCategories(),
		Cadences:               []string{string(core.Daily), string(core.Weekly), string(core.Monthly), string(core.Yearly)},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "index.html")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "method", r.Method, "url", r.URL.Path)
		resp.Write(w)
		return
	}

	dateStr := strings.TrimSpace(r.Form.Get("date"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	category := sanitizeInput(r.Form.Get("category"))
	note := sanitizeInput(r.Form.Get("note"))

	date, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid date, expected YYYY-MM-DD").Write(w)
		return
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	tx := core.Transaction{
		Date:     date,
		Amount:   amount,
		Category: category,
		Note:     note,
	}
	if err := tx.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.svc.RecordTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save transaction",
			"error", err,
			"date", tx.Date.String(),
			"amount_cents", tx.Amount.Cents,
			"category", tx.Category,
			"component", "transaction_handler",
			"operation", "create")
		InternalServerError("Error saving transaction").Write(w)
		return
	}

	s.invalidateMonth(saved.Date.Year(), saved.Date.Month())

	slog.InfoContext(r.Context(), "Transaction created successfully",
		"id", saved.ID,
		"date", saved.Date.String(),
		"amount_cents", saved.Amount.Cents,
		"category", saved.Category,
		"component", "transaction_handler",
		"operation", "create")

	successMsg := fmt.Sprintf("Saved #%d: %s %s (%s)",
		saved.ID,
		template.HTMLEscapeString(saved.Date.String()),
		template.HTMLEscapeString(formatDollars(saved.Amount.Cents)),
		template.HTMLEscapeString(saved.Category))

	NewHTMXResponse().
		TriggerFormReset().
		TriggerTransactionCreated(saved.Date.Year(), saved.Date.Month()).
		TriggerDashboardRefresh(saved.Date.Year(), saved.Date.Month()).
		TriggerSuccessNotification(successMsg).
		BodyString("").
		Write(w)
}
