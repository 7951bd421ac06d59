package competitors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTrackerIsTracked(t *testing.T) {
	t.Parallel()

	tracker := NewTracker([]string{" Acme.io ", "globex.com", ""}, zap.NewNop())

	testCases := []struct {
		from string
		want bool
	}{
		{"news@acme.io", true},
		{"News <NEWS@ACME.IO>", true},
		{"promo@mail.acme.io", true},
		{"hello@globex.com", true},
		{"hello@notacme.io", false},
		{"someone@initech.com", false},
		{"not-an-address", false},
		{"", false},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.want, tracker.IsTracked(testCase.from), testCase.from)
	}
}

func TestTrackerWithoutDomainsTracksEveryone(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(nil, nil)

	assert.True(t, tracker.IsTracked("anyone@anywhere.org"))
	assert.True(t, tracker.IsTracked("garbage"))
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme.io", Domain("Acme <news@Acme.IO>"))
	assert.Equal(t, "globex.com", Domain("hello@globex.com"))
	assert.Equal(t, "", Domain("trailing@"))
	assert.Equal(t, "", Domain("nobody"))
}
