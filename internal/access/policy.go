// Package access maps agent roles to the back-office sections they may open.
package access

import "backoffice/internal/domain"

var sectionsByRole = map[domain.Role]map[domain.Section]bool{
	domain.RoleAdmin: {
		domain.SectionSupport:      true,
		domain.SectionVerification: true,
		domain.SectionOperation:    true,
		domain.SectionFinance:      true,
	},
	domain.RoleExecutive: {
		domain.SectionSupport:      true,
		domain.SectionVerification: true,
		domain.SectionOperation:    true,
		domain.SectionFinance:      true,
	},
	domain.RoleOperation: {
		domain.SectionOperation: true,
		domain.SectionSupport:   true,
	},
	domain.RoleSupport:      {domain.SectionSupport: true},
	domain.RoleVerification: {domain.SectionVerification: true},
	domain.RoleFinance:      {domain.SectionFinance: true},
}

// CanAccessSection reports whether role may open section. An empty or unknown
// role, or an unknown section, is always denied.
func CanAccessSection(role domain.Role, section domain.Section) bool {
	if role == "" {
		return false
	}
	return sectionsByRole[role][section]
}

// SectionsFor returns the sections role may open, in domain.Sections order.
func SectionsFor(role domain.Role) []domain.Section {
	var out []domain.Section
	for _, s := range domain.Sections {
		if CanAccessSection(role, s) {
			out = append(out, s)
		}
	}
	return out
}
