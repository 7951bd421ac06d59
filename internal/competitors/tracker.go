package competitors

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Tracker decides whether a sender belongs to a tracked competitor domain
type Tracker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewTracker creates a tracker for the given domains.
// With no domains every sender is tracked.
func NewTracker(domains []string, logger *zap.Logger) *Tracker {
	normalized := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized[domain] = struct{}{}
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Tracking competitor domains", zap.Int("count", len(normalized)))
	}

	return &Tracker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTracked reports whether mail from this address should be captured.
// Subdomains of a tracked domain count as tracked.
func (t *Tracker) IsTracked(from string) bool {
	if len(t.domains) == 0 {
		return true
	}

	domain := Domain(from)
	if domain == "" {
		return false
	}

	for candidate := domain; candidate != ""; {
		if _, ok := t.domains[candidate]; ok {
			if t.logger != nil {
				t.logger.Debug("Sender is tracked",
					zap.String("domain", candidate),
					zap.String("email", from))
			}
			return true
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}

	return false
}

// Domain extracts the lowercase domain of an address, accepting "Name <addr>" forms
func Domain(from string) string {
	address := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(address[at+1:], "<> "))
}
