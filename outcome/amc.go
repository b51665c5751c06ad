// ABOUTME: Active-member-count eligibility rules for new sales
// ABOUTME: Packs, drop-ins, and transfers don't add to the member count
package outcome

import "strings"

var nonMemberMemberships = []string{"pack", "drop-in", "drop in", "intro offer"}

var nonNewLeadSources = []string{"transfer", "existing member", "staff"}

// IsAMCEligible reports whether a sale of membershipType via leadSource adds
// a new active member.
func IsAMCEligible(membershipType, leadSource string) bool {
	m := strings.ToLower(membershipType)
	for _, s := range nonMemberMemberships {
		if strings.Contains(m, s) {
			return false
		}
	}

	src := strings.ToLower(leadSource)
	for _, s := range nonNewLeadSources {
		if strings.Contains(src, s) {
			return false
		}
	}
	return strings.TrimSpace(m) != ""
}
