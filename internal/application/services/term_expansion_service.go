package services

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

// defaultSynonyms is the product's synonym table. Keys are exact lowercase
// tokens; values are the expansions added alongside the original token.
// This table is policy data, maintained by hand.
var defaultSynonyms = map[string][]string{
	"dental":    {"dentist", "teeth", "oral", "tooth"},
	"dentist":   {"dental", "teeth", "oral", "tooth"},
	"teeth":     {"dental", "dentist", "tooth", "oral"},
	"tooth":     {"dental", "dentist", "teeth", "oral"},
	"sti":       {"std", "sexual health", "hiv", "testing"},
	"std":       {"sti", "sexual health", "hiv", "testing"},
	"mental":    {"counseling", "therapy", "psychiatry", "behavioral"},
	"therapy":   {"counseling", "mental health", "behavioral"},
	"pregnancy": {"prenatal", "obstetrics", "maternity"},
	"prenatal":  {"pregnancy", "obstetrics", "maternity"},
	"eye":       {"vision", "optometry", "optometrist"},
	"vision":    {"eye", "optometry", "optometrist"},
	"skin":      {"dermatology", "dermatologist"},
	"flu":       {"influenza", "vaccine", "immunization"},
	"shot":      {"vaccine", "immunization"},
	"vaccine":   {"immunization", "shot"},
	"checkup":   {"physical", "exam", "screening"},
	"cleaning":  {"dental", "hygiene"},
	"xray":      {"imaging", "radiology"},
	"x-ray":     {"imaging", "radiology"},
	"blood":     {"lab", "testing", "screening"},
	"hearing":   {"audiology", "audiologist"},
}

// TermExpansionService expands search queries into a broader term set using
// a static synonym table. No stemming, no fuzzy matching: same input always
// yields the same output.
type TermExpansionService struct {
	terms map[string][]string
	mu    sync.RWMutex
}

// NewTermExpansionService creates a term expansion service backed by the
// built-in synonym table.
func NewTermExpansionService() *TermExpansionService {
	terms := make(map[string][]string, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		terms[strings.ToLower(k)] = v
	}
	return &TermExpansionService{terms: terms}
}

// NewTermExpansionServiceFromFile creates a service whose table is overlaid
// with mappings from a JSON file, for deployments that tune the table
// without a release.
func NewTermExpansionServiceFromFile(configPath string) (*TermExpansionService, error) {
	s := NewTermExpansionService()
	if err := s.loadConfig(configPath); err != nil {
		return nil, err
	}
	return s, nil
}

// loadConfig overlays term mappings from a JSON file
func (s *TermExpansionService) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var mappings map[string][]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range mappings {
		s.terms[strings.ToLower(k)] = v
	}
	return nil
}

// Expand expands a search query into a deduplicated list of lowercase terms:
// the original whitespace-split tokens plus their synonyms.
func (s *TermExpansionService) Expand(query string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []string{}
	}

	rawTerms := strings.Fields(query)

	var expanded []string
	seen := make(map[string]bool)

	for _, term := range rawTerms {
		if !seen[term] {
			expanded = append(expanded, term)
			seen[term] = true
		}

		if synonyms, ok := s.terms[term]; ok {
			for _, syn := range synonyms {
				if !seen[syn] {
					expanded = append(expanded, syn)
					seen[syn] = true
				}
			}
		}
	}

	return expanded
}
