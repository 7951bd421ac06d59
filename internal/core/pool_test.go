package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolIDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestFilterPool(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		selected Sequence
		criteria FilterCriteria
		want     []string
	}{
		{"NoCriteria", nil, FilterCriteria{}, []string{"C", "B", "A"}},
		{"AllSentinels", nil, FilterCriteria{SenderEmail: FilterAll, Category: FilterAll}, []string{"C", "B", "A"}},
		{"ExcludesSelected", Sequence{"B"}, FilterCriteria{}, []string{"C", "A"}},
		{"TextMatchesSubjectCaseInsensitive", nil, FilterCriteria{Text: "WELCOME"}, []string{"A"}},
		{"TextMatchesSenderEmail", nil, FilterCriteria{Text: "acme.io"}, []string{"C", "B"}},
		{"TextMatchesSenderName", nil, FilterCriteria{Text: "acme news"}, []string{"B"}},
		{"TextIsTrimmed", nil, FilterCriteria{Text: "  guide "}, []string{"B"}},
		{"SenderExact", nil, FilterCriteria{SenderEmail: "hello@globex.com"}, []string{"A"}},
		{"CategoryExact", nil, FilterCriteria{Category: "onboarding"}, []string{"B", "A"}},
		{"Combined", Sequence{"A"}, FilterCriteria{Text: "started", Category: "onboarding"}, []string{"B"}},
		{"NoMatch", nil, FilterCriteria{Text: "zzz"}, []string{}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := poolIDs(FilterPool(scenarioCatalog(), testCase.selected, testCase.criteria))
			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Errorf("pool mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterPoolFoldsUnicodeCase(t *testing.T) {
	t.Parallel()

	catalog := []Item{{ID: "X", SenderEmail: "info@strasse.de", Subject: "Große Aktion"}}

	got := FilterPool(catalog, nil, FilterCriteria{Text: "GROSSE"})
	require.Len(t, got, 1)
}

func TestFilterPoolNeverReturnsSelected(t *testing.T) {
	t.Parallel()

	catalog := scenarioCatalog()
	selections := []Sequence{{}, {"A"}, {"A", "B"}, {"C", "B", "A"}, {"Z"}}

	for _, selected := range selections {
		for _, item := range FilterPool(catalog, selected, FilterCriteria{}) {
			assert.False(t, selected.Contains(item.ID), "item %s is selected", item.ID)
		}
	}
}

func TestFilterPoolDoesNotMutateCatalog(t *testing.T) {
	t.Parallel()

	catalog := scenarioCatalog()
	FilterPool(catalog, Sequence{"A"}, FilterCriteria{Text: "acme"})

	if diff := cmp.Diff(scenarioCatalog(), catalog); diff != "" {
		t.Errorf("catalog changed (-want +got):\n%s", diff)
	}
}

func TestUniqueSenders(t *testing.T) {
	t.Parallel()

	got := UniqueSenders(scenarioCatalog())

	want := []Sender{
		{Email: "news@acme.io", Name: "Acme"},
		{Email: "hello@globex.com", Name: "hello@globex.com"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("senders mismatch (-want +got):\n%s", diff)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	catalog := append(scenarioCatalog(), Item{ID: "D", SenderEmail: "x@y.z"})

	require.Equal(t, []string{"onboarding", "promo"}, Categories(catalog))
	require.Empty(t, Categories(nil))
}
