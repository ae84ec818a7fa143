package services

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// Advise produces the dashboard's tip list from the month's numbers.
// Rules fire independently; an empty slice means no alerts.
func Advise(summary core.MonthSummary, statuses []core.BudgetStatus, cards []core.Card, subs []core.Subscription) []string {
	var tips []string

	if summary.Expense.Cents > summary.Income.Cents && summary.Income.Cents > 0 {
		tips = append(tips, "You're spending more than you earn this month. Tighten categories or increase income.")
	}

	if core.TotalUtilization(cards) > 0.3 {
		tips = append(tips, "Credit utilization is above 30%; paying before statement date may help your score.")
	}

	if len(subs) >= 3 {
		tips = append(tips, "Audit subscriptions: cancel anything you don't use to reduce recurring spend.")
	}

	var over []string
	for _, st := range statuses {
		if st.Over {
			over = append(over, st.Category)
		}
	}
	if len(over) > 0 {
		tips = append(tips, fmt.Sprintf("Over budget in: %s. Consider moving discretionary spend to next month.", strings.Join(over, ", ")))
	}

	return tips
}
