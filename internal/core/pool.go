package core

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// FilterPool returns the catalog items that are not selected and match the criteria.
// Catalog order is preserved and the catalog itself is never modified.
func FilterPool(catalog []Item, selected Sequence, criteria FilterCriteria) []Item {
	excluded := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		excluded[id] = struct{}{}
	}

	// cases.Caser keeps state, so each call gets its own
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(criteria.Text))

	pool := make([]Item, 0, len(catalog))
	for _, item := range catalog {
		if _, ok := excluded[item.ID]; ok {
			continue
		}
		if !matchesExact(criteria.SenderEmail, item.SenderEmail) {
			continue
		}
		if !matchesExact(criteria.Category, item.Category) {
			continue
		}
		if needle != "" && !matchesText(fold, needle, item) {
			continue
		}
		pool = append(pool, item)
	}

	return pool
}

// matchesExact applies an exact-match criterion honouring the "all" sentinel
func matchesExact(want, got string) bool {
	if want == "" || want == FilterAll {
		return true
	}
	return want == got
}

func matchesText(fold cases.Caser, needle string, item Item) bool {
	for _, field := range []string{item.Subject, item.SenderEmail, item.SenderName} {
		if field != "" && strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

// UniqueSenders lists each sender email once, with the first display name seen for it
func UniqueSenders(catalog []Item) []Sender {
	seen := make(map[string]struct{})
	senders := make([]Sender, 0)

	for _, item := range catalog {
		if _, ok := seen[item.SenderEmail]; ok {
			continue
		}
		seen[item.SenderEmail] = struct{}{}
		senders = append(senders, Sender{
			Email: item.SenderEmail,
			Name:  item.DisplayName(),
		})
	}

	return senders
}

// Categories returns the distinct non-empty categories present in the catalog, sorted
func Categories(catalog []Item) []string {
	set := make(map[string]struct{})
	for _, item := range catalog {
		if item.Category != "" {
			set[item.Category] = struct{}{}
		}
	}

	categories := make([]string, 0, len(set))
	for category := range set {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	return categories
}
