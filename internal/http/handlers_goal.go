package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	targetStr := strings.TrimSpace(r.Form.Get("target_amount"))
	dateStr := strings.TrimSpace(r.Form.Get("target_date"))
	savedStr := strings.TrimSpace(r.Form.Get("current_saved"))

	target, err := core.ParseAmount(targetStr)
	if err != nil {
		UnprocessableEntityError("Invalid target amount").Write(w)
		return
	}
	targetDate, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid target date, expected YYYY-MM-DD").Write(w)
		return
	}
	saved := core.Money{}
	if savedStr != "" {
		saved, err = core.ParseAmount(savedStr)
		if err != nil {
			UnprocessableEntityError("Invalid saved amount").Write(w)
			return
		}
	}

	goal := core.Goal{
		Name:         name,
		TargetAmount: target.Abs(),
		TargetDate:   targetDate,
		CurrentSaved: saved.Abs(),
	}
	if err := goal.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	added, err := s.store.AddGoal(r.Context(), goal)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save goal",
			"error", err, "name", goal.Name, "component", "goal_handler", "operation", "create")
		InternalServerError("Error saving goal").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Goal created successfully",
		"id", added.ID, "name", added.Name, "component", "goal_handler", "operation", "create")

	NewHTMXResponse().
		TriggerFormReset().
		TriggerGoalsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Goal %s added", template.HTMLEscapeString(added.Name))).
		BodyString("").
		Write(w)
}

// handleEditGoal replaces every field of an existing goal with the
// submitted form values, including the saved amount.
func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing goal id").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	targetStr := strings.TrimSpace(r.Form.Get("target_amount"))
	dateStr := strings.TrimSpace(r.Form.Get("target_date"))
	savedStr := strings.TrimSpace(r.Form.Get("current_saved"))

	target, err := core.ParseAmount(targetStr)
	if err != nil {
		UnprocessableEntityError("Invalid target amount").Write(w)
		return
	}
	targetDate, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid target date, expected YYYY-MM-DD").Write(w)
		return
	}
	saved := core.Money{}
	if savedStr != "" {
		saved, err = core.ParseAmount(savedStr)
		if err != nil {
			UnprocessableEntityError("Invalid saved amount").Write(w)
			return
		}
	}

	goal := core.Goal{
		ID:           id,
		Name:         name,
		TargetAmount: target.Abs(),
		TargetDate:   targetDate,
		CurrentSaved: saved.Abs(),
	}
	if err := goal.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateGoal(r.Context(), goal); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Goal not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update goal",
			"error", err, "id", id, "component", "goal_handler", "operation", "edit")
		InternalServerError("Error updating goal").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Goal updated successfully",
		"id", id, "name", goal.Name, "component", "goal_handler", "operation", "edit")

	NewHTMXResponse().
		TriggerGoalsChanged().
		TriggerSuccessNotification(fmt.Sprintf("Goal %s updated", template.HTMLEscapeString(goal.Name))).
		BodyString("").
		Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing goal id").Write(w)
		return
	}

	if err := s.store.DeleteGoal(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete goal",
			"error", err, "id", id, "component", "goal_handler", "operation", "delete")
		InternalServerError("Error deleting goal").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerGoalsChanged().
		TriggerSuccessNotification("Goal removed").
		BodyString("").
		Write(w)
}
