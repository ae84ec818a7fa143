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
)

// payMarker tags the ledger row written for a card payment so repeated
// payments in the same month remain distinguishable in the note text.
func payMarker(name string, now time.Time) string {
	return fmt.Sprintf("[ccpay:%s:%s]", name, now.Format("2006-01"))
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	limitStr := strings.TrimSpace(r.Form.Get("limit"))
	balanceStr := strings.TrimSpace(r.Form.Get("balance"))

	limit, err := core.ParseAmount(limitStr)
	if err != nil {
		UnprocessableEntityError("Invalid limit").Write(w)
		return
	}
	balance := core.Money{}
	if balanceStr != "" {
		balance, err = core.ParseAmount(balanceStr)
		if err != nil {
			UnprocessableEntityError("Invalid balance").Write(w)
			return
		}
	}

	card := core.Card{
		Name:    name,
		Limit:   limit.Abs(),
		Balance: balance.Abs(),
	}
	if err := card.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.store.AddCard(r.Context(), card)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save card",
			"error", err, "name", card.Name, "component", "card_handler", "operation", "create")
		InternalServerError("Error saving card").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Card created successfully",
		"id", saved.ID, "name", saved.Name, "component", "card_handler", "operation", "create")

	NewHTMXResponse().
		TriggerFormReset().
		TriggerCardsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Card %s added", template.HTMLEscapeString(saved.Name))).
		BodyString("").
		Write(w)
}

// handleEditCard replaces the name, limit and balance of an existing
// card with the submitted form values.
func (s *Server) handleEditCard(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing card id").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	limitStr := strings.TrimSpace(r.Form.Get("limit"))
	balanceStr := strings.TrimSpace(r.Form.Get("balance"))

	limit, err := core.ParseAmount(limitStr)
	if err != nil {
		UnprocessableEntityError("Invalid limit").Write(w)
		return
	}
	balance := core.Money{}
	if balanceStr != "" {
		balance, err = core.ParseAmount(balanceStr)
		if err != nil {
			UnprocessableEntityError("Invalid balance").Write(w)
			return
		}
	}

	card := core.Card{
		ID:      id,
		Name:    name,
		Limit:   limit.Abs(),
		Balance: balance.Abs(),
	}
	if err := card.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateCard(r.Context(), card); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Card not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update card",
			"error", err, "id", id, "component", "card_handler", "operation", "edit")
		InternalServerError("Error updating card").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Card updated successfully",
		"id", id, "name", card.Name, "component", "card_handler", "operation", "edit")

	NewHTMXResponse().
		TriggerCardsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Card %s updated", template.HTMLEscapeString(card.Name))).
		BodyString("").
		Write(w)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing card id").Write(w)
		return
	}

	if err := s.store.DeleteCard(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete card",
			"error", err, "id", id, "component", "card_handler", "operation", "delete")
		InternalServerError("Error deleting card").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerCardsChanged().
		TriggerSuccessNotification("Card removed").
		BodyString("").
		Write(w)
}

// handleCardPayment pays down a card balance and books the payment as a
// Bills expense in the ledger. The balance never goes below zero.
func (s *Server) handleCardPayment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, _ := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	amountStr := strings.TrimSpace(r.Form.Get("amount"))

	if id <= 0 {
		BadRequestError("Missing card id").Write(w)
		return
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil || amount.Cents <= 0 {
		UnprocessableEntityError("Invalid payment amount").Write(w)
		return
	}

	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards error", "error", err)
		InternalServerError("Error loading cards").Write(w)
		return
	}
	var card *core.Card
	for i := range cards {
		if cards[i].ID == id {
			card = &cards[i]
			break
		}
	}
	if card == nil {
		NotFoundError("Card not found").Write(w)
		return
	}

	card.Balance.Cents -= amount.Cents
	if card.Balance.Cents < 0 {
		card.Balance.Cents = 0
	}
	if err := s.store.UpdateCard(r.Context(), *card); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Card not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update card balance",
			"error", err, "id", id, "component", "card_handler", "operation", "pay")
		InternalServerError("Error updating card").Write(w)
		return
	}

	now := time.Now()
	payment := core.Transaction{
		Date:     core.NewDate(now.Year(), int(now.Month()), now.Day()),
		Amount:   amount.Neg(),
		Category: "Bills",
		Note:     fmt.Sprintf("Credit card payment - %s %s", card.Name, payMarker(card.Name, now)),
	}
	saved, err := s.svc.RecordTransaction(r.Context(), payment)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to book card payment",
			"error", err, "card_id", id, "component", "card_handler", "operation", "pay")
		InternalServerError("Card updated but payment not booked").Write(w)
		return
	}

	s.invalidateMonth(saved.Date.Year(), saved.Date.Month())

	slog.InfoContext(r.Context(), "Card payment recorded",
		"card_id", id, "transaction_id", saved.ID, "amount_cents", amount.Cents,
		"component", "card_handler", "operation", "pay")

	NewHTMXResponse().
		TriggerCardsChanged().
		TriggerDashboardRefresh(saved.Date.Year(), saved.Date.Month()).
		TriggerSuccessNotification(fmt.Sprintf("Paid %s on %s", formatDollars(amount.Cents), template.HTMLEscapeString(card.Name))).
		BodyString("").
		Write(w)
}

// handleCardsGoals renders the combined cards and goals partial.
func (s *Server) handleCardsGoals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards error", "error", err)
		_, _ = w.Write([]byte(`<div id="cards-goals" class="cards-goals"><div class="placeholder">Error loading cards</div></div>`))
		return
	}
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List goals error", "error", err)
		_, _ = w.Write([]byte(`<div id="cards-goals" class="cards-goals"><div class="placeholder">Error loading goals</div></div>`))
		return
	}

	type cardRow struct {
		ID                   int64
		Name                 string
		Limit, Balance       string
		LimitRaw, BalanceRaw string
		Utilization          int
		High                 bool
	}
	type goalRow struct {
		ID                  int64
		Name                string
		Target, Saved       string
		TargetRaw, SavedRaw string
		TargetDate          string
		Progress            int
	}

	var cardRows []cardRow
	for _, c := range cards {
		util := int(c.Utilization()*100 + 0.5)
		cardRows = append(cardRows, cardRow{
			ID:          c.ID,
			Name:        template.HTMLEscapeString(c.Name),
			Limit:       formatDollars(c.Limit.Cents),
			Balance:     formatDollars(c.Balance.Cents),
			LimitRaw:    c.Limit.String(),
			BalanceRaw:  c.Balance.String(),
			Utilization: util,
			High:        c.Utilization() > 0.3,
		})
	}

	var goalRows []goalRow
	for _, g := range goals {
		goalRows = append(goalRows, goalRow{
			ID:         g.ID,
			Name:       template.HTMLEscapeString(g.Name),
			Target:     formatDollars(g.TargetAmount.Cents),
			Saved:      formatDollars(g.CurrentSaved.Cents),
			TargetRaw:  g.TargetAmount.String(),
			SavedRaw:   g.CurrentSaved.String(),
			TargetDate: g.TargetDate.String(),
			Progress:   int(g.Progress()*100 + 0.5),
		})
	}

	totalUtil := int(core.TotalUtilization(cards)*100 + 0.5)

	data := struct {
		Cards            []cardRow
		Goals            []goalRow
		TotalUtilization int
	}{
		Cards:            cardRows,
		Goals:            goalRows,
		TotalUtilization: totalUtil,
	}

	if err := s.templates.ExecuteTemplate(w, "cards_goals.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "cards_goals.html")
		_, _ = w.Write([]byte(`<div id="cards-goals" class="cards-goals"><div class="placeholder">Error rendering cards and goals</div></div>`))
	}
}
