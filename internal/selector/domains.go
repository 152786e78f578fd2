package selector

import "strings"

// DomainGeneral is returned for roles that match no known domain.
const DomainGeneral = "general"

type domainRule struct {
	domain   string
	keywords []string
}

var domainRules = []domainRule{
	{domain: "software", keywords: []string{"sde", "software", "engineer", "frontend", "backend", "fullstack", "devops", "mobile", "data", "ml", "web", "developer"}},
	{domain: "education", keywords: []string{"teacher", "education", "professor"}},
	{domain: "law", keywords: []string{"lawyer", "legal", "law"}},
	{domain: "medical", keywords: []string{"doctor", "medical", "nurse", "healthcare", "therapist", "psychologist"}},
	{domain: "business", keywords: []string{"product", "business", "management", "executive", "mba", "ceo"}},
	{domain: "service", keywords: []string{"hotel", "hospitality", "cabin", "aviation", "pilot"}},
	{domain: "creative", keywords: []string{"design", "artist", "actor", "journalist", "media"}},
}

// DomainOf maps a free-form role to a broad professional domain.
func DomainOf(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return DomainGeneral
	}
	for _, rule := range domainRules {
		for _, kw := range rule.keywords {
			if strings.Contains(r, kw) {
				return rule.domain
			}
		}
	}
	return DomainGeneral
}
