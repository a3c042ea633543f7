// Package model defines the typed boundary records shared across the
// orchestrator: queue rows, stage results, and the documents each stage
// produces. Every external edge (HTTP, database, model parse) exchanges one
// of these types rather than an ad-hoc map.
package model

import (
	"regexp"

	"github.com/rotisserie/eris"
)

// CompanyKey is the opaque 8-character identifier every entity is keyed by —
// the first segment of a Brazilian CNPJ.
type CompanyKey string

var companyKeyPattern = regexp.MustCompile(`^[0-9]{8}$`)

// Validate reports whether k is a well-formed company key.
func (k CompanyKey) Validate() error {
	if !companyKeyPattern.MatchString(string(k)) {
		return eris.Errorf("model: invalid company key %q: want 8 digits", string(k))
	}
	return nil
}

func (k CompanyKey) String() string { return string(k) }
