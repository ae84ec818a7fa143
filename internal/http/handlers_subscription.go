package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	cadence := core.Cadence(strings.ToLower(sanitizeInput(r.Form.Get("cadence"))))
	nextStr := strings.TrimSpace(r.Form.Get("next_charge_date"))
	category := sanitizeInput(r.Form.Get("category"))

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}
	next, err := core.ParseDate(nextStr)
	if err != nil {
		UnprocessableEntityError("Invalid next charge date, expected YYYY-MM-DD").Write(w)
		return
	}

	sub := core.Subscription{
		Name:           name,
		Amount:         amount.Abs(),
		Cadence:        cadence,
		NextChargeDate: next,
		Category:       category,
	}
	if err := sub.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.store.AddSubscription(r.Context(), sub)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save subscription",
			"error", err, "name", sub.Name, "component", "subscription_handler", "operation", "create")
		InternalServerError("Error saving subscription").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Subscription created successfully",
		"id", saved.ID, "name", saved.Name, "cadence", string(saved.Cadence),
		"component", "subscription_handler", "operation", "create")

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSubscriptionsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Subscription %s added", template.HTMLEscapeString(saved.Name))).
		BodyString("").
		Write(w)
}

// handleEditSubscription replaces every field of an existing
// subscription with the submitted form values.
func (s *Server) handleEditSubscription(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, _ := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if id <= 0 {
		BadRequestError("Missing subscription id").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	cadence := core.Cadence(strings.ToLower(sanitizeInput(r.Form.Get("cadence"))))
	nextStr := strings.TrimSpace(r.Form.Get("next_charge_date"))
	category := sanitizeInput(r.Form.Get("category"))

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}
	next, err := core.ParseDate(nextStr)
	if err != nil {
		UnprocessableEntityError("Invalid next charge date, expected YYYY-MM-DD").Write(w)
		return
	}

	sub := core.Subscription{
		ID:             id,
		Name:           name,
		Amount:         amount.Abs(),
		Cadence:        cadence,
		NextChargeDate: next,
		Category:       category,
	}
	if err := sub.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateSubscription(r.Context(), sub); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Subscription not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update subscription",
			"error", err, "id", id, "component", "subscription_handler", "operation", "edit")
		InternalServerError("Error updating subscription").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Subscription updated successfully",
		"id", id, "name", sub.Name, "cadence", string(sub.Cadence),
		"component", "subscription_handler", "operation", "edit")

	NewHTMXResponse().
		TriggerSubscriptionsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Subscription %s updated", template.HTMLEscapeString(sub.Name))).
		BodyString("").
		Write(w)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		slog.ErrorContext(r.Context(), "Parse body error", "error", err, "method", r.Method, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := parser.GetInt64("id")
	if id <= 0 {
		BadRequestError("Missing subscription id").Write(w)
		return
	}

	if err := s.store.DeleteSubscription(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete subscription",
			"error", err, "id", id, "component", "subscription_handler", "operation", "delete")
		InternalServerError("Error deleting subscription").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Subscription deleted successfully",
		"id", id, "component", "subscription_handler", "operation", "delete")

	NewHTMXResponse().
		TriggerSubscriptionsChanged().
		TriggerSuccessNotification("Subscription removed").
		BodyString("").
		Write(w)
}

func (s *Server) handlePostCharges(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	now := time.Now()
	processor := services.NewSubscriptionProcessor(s.store, s.store, s.svc)
	posted, err := processor.PostDueCharges(r.Context(), now)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to post due charges",
			"error", err, "component", "subscription_handler", "operation", "post_charges")
		InternalServerError("Error posting due charges").Write(w)
		return
	}

	s.invalidateMonth(now.Year(), int(now.Month()))

	msg := "No charges due"
	if posted > 0 {
		msg = fmt.Sprintf("Posted %d charge(s)", posted)
	}

	NewHTMXResponse().
		TriggerSubscriptionsChanged().
		TriggerDashboardRefresh(now.Year(), int(now.Month())).
		TriggerSuccessNotification(msg).
		BodyString("").
		Write(w)
}

func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	subs, err := s.store.ListSubscriptions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List subscriptions error", "error", err)
		_, _ = w.Write([]byte(`<div id="subscriptions" class="subscriptions"><div class="placeholder">Error loading subscriptions</div></div>`))
		return
	}

	type row struct {
		ID        int64
		Name      string
		Amount    string
		AmountRaw string
		Cadence   string
		Next      string
		Category  string
	}
	var rows []row
	var monthlyTotal int64
	for _, sub := range subs {
		rows = append(rows, row{
			ID:        sub.ID,
			Name:      template.HTMLEscapeString(sub.Name),
			Amount:    formatDollars(sub.Amount.Cents),
			AmountRaw: sub.Amount.String(),
			Cadence:   string(sub.Cadence),
			Next:      sub.NextChargeDate.String(),
			Category:  sub.Category,
		})
		if sub.Cadence == core.Monthly {
			monthlyTotal += sub.Amount.Cents
		}
	}

	data := struct {
		Items        []row
		MonthlyTotal string
	}{
		Items:        rows,
		MonthlyTotal: formatDollars(monthlyTotal),
	}

	if err := s.templates.ExecuteTemplate(w, "subscriptions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "subscriptions.html")
		_, _ = w.Write([]byte(`<div id="subscriptions" class="subscriptions"><div class="placeholder">Error rendering subscriptions</div></div>`))
	}
}
