// Package lead defines core types shared across subsystems.
package lead

import "time"

// Business is a single ingested business record. Required fields are
// non-empty after trimming; optional fields are nil until populated.
type Business struct {
	ID                  string  `json:"id"`
	BusinessName        string  `json:"business_name"`
	Industry            string  `json:"industry"`
	IndustryDisplayName string  `json:"industry_display_name"`
	Location            string  `json:"location"`
	City                *string `json:"city"`
	State               *string `json:"state"`
	Website             *string `json:"website"`
	Email               *string `json:"email"`
}

// HasWebsite reports whether a website has already been identified.
func (b Business) HasWebsite() bool {
	return b.Website != nil && *b.Website != ""
}

// Logical field names ingested from every upload.
const (
	FieldBusinessName = "business_name"
	FieldIndustry     = "industry"
	FieldLocation     = "location"
)

// LogicalFields lists the fixed set of ingestable fields, in ingestion order.
var LogicalFields = []string{FieldBusinessName, FieldIndustry, FieldLocation}

// FieldMapping describes one logical field of the column mapping.
type FieldMapping struct {
	Required    bool   `json:"required"`
	DisplayName string `json:"displayName"`
}

// ColumnMapping associates the fixed logical fields with their display
// configuration. The key set never grows beyond LogicalFields.
type ColumnMapping map[string]FieldMapping

// DefaultColumnMapping returns the initial process-wide mapping.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		FieldBusinessName: {Required: true, DisplayName: "Business Name"},
		FieldIndustry:     {Required: true, DisplayName: "Industry"},
		FieldLocation:     {Required: true, DisplayName: "Location"},
	}
}

// Clone returns an independent copy of the mapping.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DiscoveryOutcome tags the result of a website discovery attempt.
type DiscoveryOutcome string

// Discovery outcomes.
const (
	OutcomeFound         DiscoveryOutcome = "found"
	OutcomeNotFound      DiscoveryOutcome = "not_found"
	OutcomeProviderError DiscoveryOutcome = "provider_error"
)

// DiscoveryResult reports what a discovery attempt produced. Detail carries
// diagnostic context for logging and is never surfaced to API callers.
type DiscoveryResult struct {
	Outcome DiscoveryOutcome
	URL     string
	Detail  string
}

// Found builds a successful discovery result.
func Found(url string) DiscoveryResult {
	return DiscoveryResult{Outcome: OutcomeFound, URL: url}
}

// NotFound builds an empty discovery result.
func NotFound(detail string) DiscoveryResult {
	return DiscoveryResult{Outcome: OutcomeNotFound, Detail: detail}
}

// ProviderFailure builds a result for a discovery run that failed on the
// provider side rather than finding nothing.
func ProviderFailure(detail string) DiscoveryResult {
	return DiscoveryResult{Outcome: OutcomeProviderError, Detail: detail}
}

// WebsiteIdentifiedEvent is published after a website is verified and stored.
type WebsiteIdentifiedEvent struct {
	BusinessID   string    `json:"business_id"`
	BusinessName string    `json:"business_name"`
	Website      string    `json:"website"`
	IdentifiedAt time.Time `json:"identified_at"`
}
