package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the set of category labels offered by the entry forms.
// Budgets use Categories minus "Income".
type Taxonomy struct {
	Categories             []string `yaml:"categories"`
	SubscriptionCategories []string `yaml:"subscription_categories"`
}

// DefaultTaxonomy returns the built-in category lists.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Categories:             []string{"Income", "Rent", "Food", "Transport", "Shopping", "Bills", "Other"},
		SubscriptionCategories: []string{"Entertainment", "Bills", "Other"},
	}
}

// LoadTaxonomy reads category lists from a YAML file, falling back to
// the defaults for any list the file leaves empty. An empty path means
// defaults only.
func LoadTaxonomy(path string) (Taxonomy, error) {
	tax := DefaultTaxonomy()
	if path == "" {
		return tax, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy file: %w", err)
	}

	var loaded Taxonomy
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}

	if cats := cleanLabels(loaded.Categories); len(cats) > 0 {
		tax.Categories = cats
	}
	if subs := cleanLabels(loaded.SubscriptionCategories); len(subs) > 0 {
		tax.SubscriptionCategories = subs
	}
	return tax, nil
}

// BudgetCategories returns the categories eligible for a budget, which
// excludes income.
func (t Taxonomy) BudgetCategories() []string {
	out := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		if strings.EqualFold(c, "Income") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// cleanLabels trims, drops empties and dedupes while preserving order.
func cleanLabels(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
