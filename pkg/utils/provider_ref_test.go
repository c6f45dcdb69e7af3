package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProviderRef_PrecedenceOrder(t *testing.T) {
	doc := map[string]interface{}{
		"providerId":  "legacy-camel",
		"provider_id": "canonical",
		"facility_id": "legacy-facility",
	}

	assert.Equal(t, "canonical", ResolveProviderRef(doc))
}

func TestResolveProviderRef_SkipsEmptyValues(t *testing.T) {
	doc := map[string]interface{}{
		"provider_id": "   ",
		"providerId":  "",
		"facility_id": "fac-42",
	}

	assert.Equal(t, "fac-42", ResolveProviderRef(doc))
}

func TestResolveProviderRef_NonStringIgnored(t *testing.T) {
	doc := map[string]interface{}{
		"provider_id": 123,
		"owner_id":    "own-1",
	}

	assert.Equal(t, "own-1", ResolveProviderRef(doc))
}

func TestResolveProviderRef_NoAlias(t *testing.T) {
	assert.Equal(t, "", ResolveProviderRef(map[string]interface{}{"name": "x"}))
}
