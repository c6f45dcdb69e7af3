package services

import (
	"regexp"
	"strings"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// dentalishTerms marks queries that need the stricter dental matching policy.
// Generic substring matching against dental terms produces false positives
// (e.g. "tooth" inside unrelated text), so these queries go through an
// enumerated anatomy/procedure word list instead.
var dentalishTerms = map[string]bool{
	"dental":  true,
	"dentist": true,
	"teeth":   true,
	"tooth":   true,
}

// dentalServicePattern is the enumerated dental anatomy/procedure word list a
// service's text must match for dental-ish queries. This list is product
// policy; do not widen it without reviewing precision.
var dentalServicePattern = regexp.MustCompile(`dent|teeth|tooth|oral|dental|gum|cavity|filling|crown|cleaning`)

// TermMatchService decides whether a provider lexically matches a set of
// expanded query terms.
type TermMatchService struct{}

// NewTermMatchService creates a new term match service
func NewTermMatchService() *TermMatchService {
	return &TermMatchService{}
}

// Matches reports whether the provider or any of its services lexically
// matches the expanded terms. Dental-ish queries use a stricter policy than
// everything else; that asymmetry is deliberate.
func (s *TermMatchService) Matches(provider *entities.Provider, terms []string) bool {
	if provider == nil || len(terms) == 0 {
		return false
	}

	category := strings.ToLower(provider.Category)

	dentalQuery := false
	for _, term := range terms {
		if dentalishTerms[term] {
			dentalQuery = true
			break
		}
	}

	// Precision override: dental queries match dental/oral categories
	// directly, bypassing the generic substring rules.
	if dentalQuery && (strings.Contains(category, "dent") || strings.Contains(category, "oral")) {
		return true
	}

	for _, term := range terms {
		if term != "" && strings.Contains(category, term) {
			return true
		}
	}

	for _, svc := range provider.Services {
		text := strings.ToLower(svc.Name + " " + svc.Description)
		if dentalQuery {
			if dentalServicePattern.MatchString(text) {
				return true
			}
			continue
		}
		for _, term := range terms {
			if term != "" && strings.Contains(text, term) {
				return true
			}
		}
	}

	return false
}
