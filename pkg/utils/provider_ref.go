package utils

import "strings"

// providerRefAliases is the fixed precedence list of legacy field names a raw
// service document may carry its owning-provider identifier under. Ingestion
// sources have historically disagreed on the key; the first non-empty value
// wins. Downstream code never sees the aliasing.
var providerRefAliases = []string{
	"provider_id",
	"providerId",
	"providerID",
	"facility_id",
	"owner_id",
}

// ResolveProviderRef extracts the owning-provider identifier from a raw
// service document, trying each legacy alias in precedence order.
// Returns "" when no alias holds a non-empty string.
func ResolveProviderRef(doc map[string]interface{}) string {
	for _, alias := range providerRefAliases {
		if v, ok := doc[alias]; ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}
