package discovery

import "strings"

// linkFilter rejects search results that cannot be a business's own site.
// All rules are substring matches against the lowercased URL.
type linkFilter struct {
	documentTypes   []string
	socialDomains   []string
	directoryTerms  []string
	restrictedTLDs  []string
	exemptNameTerms []string
}

func newLinkFilter() *linkFilter {
	return &linkFilter{
		documentTypes:  []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx"},
		socialDomains:  []string{"facebook.com", "linkedin.com", "twitter.com", "instagram.com"},
		directoryTerms: []string{"directory", "listing", "yellowpages", "whitepages"},
		restrictedTLDs: []string{".gov", ".edu"},
		// Institutions whose own domain legitimately carries a restricted TLD.
		exemptNameTerms: []string{"university", "college", "school", "government"},
	}
}

// Allow reports whether the URL may be kept as a website candidate. When it
// is rejected, the second return names the rule that fired.
func (f *linkFilter) Allow(rawURL, businessName string) (bool, string) {
	lower := strings.ToLower(rawURL)

	if containsAny(lower, f.documentTypes) {
		return false, "document link"
	}
	if containsAny(lower, f.socialDomains) {
		return false, "social profile"
	}
	if containsAny(lower, f.directoryTerms) {
		return false, "directory listing"
	}
	if containsAny(lower, f.restrictedTLDs) && !containsAny(strings.ToLower(businessName), f.exemptNameTerms) {
		return false, "restricted domain"
	}
	return true, ""
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
