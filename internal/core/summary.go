package core

import "sort"

// CategoryAmount represents a signed amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact summary for a specific year+month.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  Money // sum of positive amounts
	Expense Money // -sum of negative amounts, always >= 0
	Net     Money
	ByCategory []CategoryAmount
}

// BudgetStatus compares a month's spend in one category against its limit.
type BudgetStatus struct {
	Category string
	Spent    Money // expenses only, absolute value
	Limit    Money
	Over     bool
}

// Summarize filters transactions to the given year+month and aggregates
// income, expenses and per-category signed sums. Categories are ordered
// by sum ascending (largest expense first), matching the dashboard chart.
func Summarize(txs []Transaction, year, month int) MonthSummary {
	s := MonthSummary{Year: year, Month: month}
	byCat := map[string]int64{}
	for _, t := range txs {
		if !t.Date.In(year, month) {
			continue
		}
		if t.Amount.Cents > 0 {
			s.Income.Cents += t.Amount.Cents
		} else {
			s.Expense.Cents -= t.Amount.Cents
		}
		byCat[t.Category] += t.Amount.Cents
	}
	s.Net = Money{Cents: s.Income.Cents - s.Expense.Cents}
	for name, cents := range byCat {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount.Cents != s.ByCategory[j].Amount.Cents {
			return s.ByCategory[i].Amount.Cents < s.ByCategory[j].Amount.Cents
		}
		return s.ByCategory[i].Name < s.ByCategory[j].Name
	})
	return s
}

// CompareBudgets reports, for each budget, the absolute expense spend in
// that category for the given year+month. Income rows are ignored.
func CompareBudgets(txs []Transaction, budgets []Budget, year, month int) []BudgetStatus {
	spent := map[string]int64{}
	for _, t := range txs {
		if !t.Date.In(year, month) || t.Amount.Cents >= 0 {
			continue
		}
		spent[t.Category] -= t.Amount.Cents
	}
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st := BudgetStatus{
			Category: b.Category,
			Spent:    Money{Cents: spent[b.Category]},
			Limit:    b.MonthlyBudget,
		}
		st.Over = b.MonthlyBudget.Cents > 0 && st.Spent.Cents > b.MonthlyBudget.Cents
		out = append(out, st)
	}
	return out
}
