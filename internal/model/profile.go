package model

import "time"

// Per-section caps enforced by the normalizer (internal/profile) after every
// model call, never trusted from the schema alone.
const (
	MaxProductCategories       = 40
	MaxItemsPerProductCategory = 60
	MaxServices                = 50
	MaxClients                 = 80
	MaxPartnerships            = 50
	MaxCertifications          = 50
	MaxCaseStudies             = 30
)

// ProductCategory groups related product items under one label.
type ProductCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// CaseStudy is a named engagement with an identified client.
type CaseStudy struct {
	Title       string `json:"title"`
	ClientName  string `json:"client_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Offerings groups the product/service sections of a profile.
type Offerings struct {
	ProductCategories []ProductCategory `json:"product_categories,omitempty"`
	Services          []string          `json:"services,omitempty"`
}

// CompanyProfile is the structured document produced by the profile stage:
// one row per company key, upserted. Flattened columns (name, industry) are
// carried alongside the nested document for indexing.
type CompanyProfile struct {
	Key CompanyKey `json:"key"`

	CompanyName string `json:"company_name"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`

	Offerings       Offerings   `json:"offerings"`
	Clients         []string    `json:"clients,omitempty"`
	Partnerships    []string    `json:"partnerships,omitempty"`
	Certifications  []string    `json:"certifications,omitempty"`
	CaseStudies     []CaseStudy `json:"case_studies,omitempty"`

	Status        StageStatus `json:"status"`
	ChunksTotal   int         `json:"chunks_total"`
	ChunksMerged  int         `json:"chunks_merged"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// StageStatus describes how completely a multi-chunk stage result was built.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StagePartial StageStatus = "partial"
	StageError   StageStatus = "error"
)
