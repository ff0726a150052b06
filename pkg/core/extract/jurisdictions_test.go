package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJurisdictionFor(t *testing.T) {
	de := JurisdictionFor("de")
	assert.Equal(t, "DE", de.Code)
	assert.Equal(t, "Delaware", de.Name)
	assert.Equal(t, "United States", de.Country)
	assert.False(t, de.IsSecrecyJurisdiction, "Delaware scores below the secrecy threshold")
	assert.Equal(t, 48.0, de.SecrecyScore)

	cayman := JurisdictionFor("Cayman Islands")
	assert.Equal(t, "CI", cayman.Code)
	assert.Equal(t, "Cayman Islands", cayman.Country)
	assert.True(t, cayman.IsSecrecyJurisdiction)
	assert.Equal(t, 76.0, cayman.SecrecyScore)

	bvi := JurisdictionFor("bvi")
	assert.Equal(t, "BVI", bvi.Code)
	assert.Equal(t, "British Virgin Islands", bvi.Name)
	assert.True(t, bvi.IsSecrecyJurisdiction)

	ny := JurisdictionFor("New York")
	assert.Equal(t, "NY", ny.Code)
	assert.Equal(t, "United States", ny.Country)
	assert.False(t, ny.IsSecrecyJurisdiction)
	assert.Zero(t, ny.SecrecyScore)
}

func TestJurisdictionCode(t *testing.T) {
	assert.Equal(t, "", jurisdictionCode(""))
	assert.Equal(t, "BE", jurisdictionCode("Bermuda"))
	assert.Equal(t, "IOM", jurisdictionCode("Isle of Man"))
	assert.Equal(t, "UK", jurisdictionCode("UK"))
}
