package model

import "time"

// ProtectionCategory classifies the kind of anti-bot defense a site has
// shown, driving which fetch strategy the prober tries next.
type ProtectionCategory string

const (
	ProtectionNone             ProtectionCategory = "none"
	ProtectionBrowserChallenge ProtectionCategory = "browser-challenge"
	ProtectionWAF              ProtectionCategory = "waf"
	ProtectionCaptcha          ProtectionCategory = "captcha"
	ProtectionRateLimit        ProtectionCategory = "rate-limit"
	ProtectionBotDetection     ProtectionCategory = "bot-detection"
)

// SiteType is the prober's classification of how a site renders content.
type SiteType string

const (
	SiteStatic  SiteType = "static"
	SiteSPA     SiteType = "spa"
	SiteHybrid  SiteType = "hybrid"
	SiteUnknown SiteType = "unknown"
)

// FetchOutcome is one attempt recorded into a SiteKnowledge's ring buffer.
type FetchOutcome struct {
	Strategy   string             `json:"strategy"`
	Success    bool               `json:"success"`
	Protection ProtectionCategory `json:"protection,omitempty"`
	At         time.Time          `json:"at"`
}

// RecentOutcomesCap bounds the advisory ring buffer below; it is never
// trusted as a statistical sample, only as a recency hint for strategy
// selection.
const RecentOutcomesCap = 10

// SiteKnowledge is everything learned about one origin (scheme+host) across
// probe and scrape attempts, consulted before every fetch to pick a
// strategy and skip known-futile ones. It is shared by every company whose
// site resolves to the same origin, not scoped to one company.
type SiteKnowledge struct {
	Origin string `json:"origin"`

	CanonicalURL string   `json:"canonical_url,omitempty"`
	SiteType     SiteType `json:"site_type"`

	PreferredStrategy string             `json:"preferred_strategy,omitempty"`
	LastProtection    ProtectionCategory `json:"last_protection,omitempty"`

	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`

	// RecentOutcomes holds up to RecentOutcomesCap entries, newest last.
	RecentOutcomes []FetchOutcome `json:"recent_outcomes,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SuccessRate returns the fraction of known attempts that succeeded, or 0
// when nothing has been recorded yet.
func (s *SiteKnowledge) SuccessRate() float64 {
	total := s.SuccessCount + s.FailureCount
	if total == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(total)
}

// RecordOutcome appends o to the ring buffer, evicting the oldest entry
// once RecentOutcomesCap is exceeded, and updates the running counters.
func (s *SiteKnowledge) RecordOutcome(o FetchOutcome) {
	if o.Success {
		s.SuccessCount++
		t := o.At
		s.LastSuccessAt = &t
	} else {
		s.FailureCount++
	}
	if o.Protection != "" {
		s.LastProtection = o.Protection
	}
	s.RecentOutcomes = append(s.RecentOutcomes, o)
	if len(s.RecentOutcomes) > RecentOutcomesCap {
		s.RecentOutcomes = s.RecentOutcomes[len(s.RecentOutcomes)-RecentOutcomesCap:]
	}
}
