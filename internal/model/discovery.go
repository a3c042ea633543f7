package model

import "time"

// DiscoveryStatus is the outcome of the Site-Discovery Agent for one company.
type DiscoveryStatus string

const (
	DiscoveryFound    DiscoveryStatus = "found"
	DiscoveryNotFound DiscoveryStatus = "not_found"
	DiscoveryError    DiscoveryStatus = "error"
)

// DiscoveryResult is one row per company key: the chosen site URL (or none),
// a status, a confidence in [0,1], and optional model reasoning. Upserted by
// the discovery stage.
type DiscoveryResult struct {
	Key        CompanyKey      `json:"key"`
	URL        *string         `json:"url,omitempty"`
	Status     DiscoveryStatus `json:"status"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
