package extract

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

const exhibit21TableHTML = `<html><body>
<p>Subsidiaries of the Registrant</p>
<table>
<tr><td>Name of Subsidiary</td><td>Jurisdiction of Incorporation</td></tr>
<tr><td>Acme Europe Ltd</td><td>UK</td></tr>
<tr><td>Acme Finance LLC</td><td>DE</td></tr>
<tr><td>Acme Insurance Company</td><td>Bermuda</td></tr>
</table>
</body></html>`

func TestSubsidiaryExtractorTable(t *testing.T) {
	e := SubsidiaryExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), exhibit21TableHTML, FilingContext{})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "Acme Europe Ltd", res.Records[0].Name)
	assert.Equal(t, "United Kingdom", res.Records[0].Jurisdiction)
	assert.Equal(t, "Delaware", res.Records[1].Jurisdiction)
	assert.Equal(t, "Bermuda", res.Records[2].Jurisdiction)

	assert.Equal(t, models.MethodRuleBased, res.Metadata.Method)
	assert.Equal(t, 0.95, res.Metadata.Confidence)
}

func TestSubsidiaryExtractorTextList(t *testing.T) {
	html := `<html><body>
<p>Subsidiaries of the Registrant</p>
<p>Acme Shipping Ltd (Panama)</p>
<p>Acme Capital Partners (Cayman Islands)</p>
<p>Beta Finance, a Delaware corporation</p>
</body></html>`

	e := SubsidiaryExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), html, FilingContext{})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	byName := make(map[string]models.SubsidiaryRecord, len(res.Records))
	for _, r := range res.Records {
		byName[r.Name] = r
	}
	assert.Equal(t, "Panama", byName["Acme Shipping Ltd"].Jurisdiction)
	assert.Equal(t, "Cayman Islands", byName["Acme Capital Partners"].Jurisdiction)
	assert.Equal(t, "Delaware", byName["Beta Finance"].Jurisdiction)

	// Plain-list parses carry lower confidence than table parses.
	assert.Equal(t, 0.85, res.Metadata.Confidence)
}

func TestSubsidiaryExtractorNothingFound(t *testing.T) {
	e := SubsidiaryExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), "<html><body><p>No list here.</p></body></html>", FilingContext{})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, models.MethodLLM, res.Metadata.Method)
}

func TestApplyOwnershipText(t *testing.T) {
	var rec models.SubsidiaryRecord
	applyOwnershipText(&rec, "a wholly-owned subsidiary")
	assert.True(t, rec.IsWhollyOwned)
	require.NotNil(t, rec.Percentage)
	assert.Equal(t, 100.0, *rec.Percentage)

	var partial models.SubsidiaryRecord
	applyOwnershipText(&partial, "owns 80% of the outstanding equity")
	assert.False(t, partial.IsWhollyOwned)
	require.NotNil(t, partial.Percentage)
	assert.Equal(t, 80.0, *partial.Percentage)

	var full models.SubsidiaryRecord
	applyOwnershipText(&full, "holds 100% of the shares")
	assert.True(t, full.IsWhollyOwned)
}

func TestNormalizeJurisdiction(t *testing.T) {
	assert.Equal(t, "Delaware", NormalizeJurisdiction("de"))
	assert.Equal(t, "United Kingdom", NormalizeJurisdiction("England and Wales"))
	assert.Equal(t, "British Virgin Islands", NormalizeJurisdiction("BVI"))
	assert.Equal(t, "Ontario", NormalizeJurisdiction("ONTARIO"))
	assert.Equal(t, "", NormalizeJurisdiction("  "))
}
