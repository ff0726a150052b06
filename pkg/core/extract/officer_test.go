package extract

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

const proxyTablesHTML = `<html><body>
<p>Executive Officers</p>
<table>
<tr><td>Name</td><td>Age</td><td>Position</td></tr>
<tr><td>Jane Doe</td><td>54</td><td>Chief Executive Officer</td></tr>
<tr><td>Henry Ford</td><td>61</td><td>Chief Financial Officer</td></tr>
<tr><td>Alan Turing</td><td>48</td><td>Senior Vice President, Engineering</td></tr>
</table>
<p>Board of Directors</p>
<table>
<tr><td>Name</td><td>Age</td><td>Position</td></tr>
<tr><td>Grace Hopper</td><td>70</td><td>Director</td></tr>
</table>
</body></html>`

func TestOfficerExtractorTables(t *testing.T) {
	e := OfficerExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), proxyTablesHTML, FilingContext{})
	require.NoError(t, err)
	require.Len(t, res.Records, 4)

	ceo := res.Records[0]
	assert.Equal(t, "Jane Doe", ceo.Name)
	require.NotNil(t, ceo.Age)
	assert.Equal(t, 54, *ceo.Age)
	assert.Equal(t, "Chief Executive Officer", ceo.Title)
	assert.True(t, ceo.IsOfficer)
	assert.True(t, ceo.IsExecutive)
	assert.False(t, ceo.IsDirector)
	assert.Equal(t, "Executive Officers", ceo.SourceSection)

	board := res.Records[3]
	assert.Equal(t, "Grace Hopper", board.Name)
	assert.True(t, board.IsDirector)
	assert.False(t, board.IsOfficer)

	// Enough officers plus a director: no augmentation needed.
	assert.Equal(t, models.MethodRuleBased, res.Metadata.Method)
	assert.Equal(t, 0.95, res.Metadata.Confidence)
}

func TestOfficerExtractorNarrativeBio(t *testing.T) {
	html := `<html><body>
<p>Jane Doe, age 54, Chief Financial Officer and Treasurer of the Company.</p>
</body></html>`

	e := OfficerExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), html, FilingContext{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "Jane Doe", rec.Name)
	require.NotNil(t, rec.Age)
	assert.Equal(t, 54, *rec.Age)
	assert.True(t, rec.IsOfficer)

	// Under 3 records the analyzer would augment; with none configured the
	// rule-based result stands at reduced confidence and no warning.
	assert.Equal(t, models.MethodRuleBased, res.Metadata.Method)
	assert.Equal(t, 0.85, res.Metadata.Confidence)
	assert.Empty(t, res.Warnings)
}

func TestOfficerExtractorBoardSectionFallback(t *testing.T) {
	html := `<html><body>
<p>Board of Directors</p>
<p>Grace Hopper (70)</p>
<p>Alan Kay (62)</p>
</body></html>`

	e := OfficerExtractor{Log: zerolog.Nop()}
	res, err := e.Extract(context.Background(), html, FilingContext{})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	for _, rec := range res.Records {
		assert.True(t, rec.IsDirector, rec.Name)
		require.NotNil(t, rec.Age, rec.Name)
		assert.Equal(t, "Board of Directors", rec.SourceSection)
	}
	assert.Equal(t, "Grace Hopper", res.Records[0].Name)
	assert.Equal(t, 70, *res.Records[0].Age)
}

func TestClassifyRoles(t *testing.T) {
	cases := []struct {
		title                        string
		officer, executive, director bool
	}{
		{"Chief Executive Officer", true, true, false},
		{"President and Chief Executive Officer", true, true, false},
		{"General Counsel", true, false, false},
		{"Chairman of the Board", false, false, true},
		{"Director", false, false, true},
		{"Managing Director", true, false, true},
	}
	for _, tc := range cases {
		rec := models.OfficerRecord{Title: tc.title}
		classifyRoles(&rec)
		assert.Equal(t, tc.officer, rec.IsOfficer, tc.title)
		assert.Equal(t, tc.executive, rec.IsExecutive, tc.title)
		assert.Equal(t, tc.director, rec.IsDirector, tc.title)
	}
}

func TestApplySectionContext(t *testing.T) {
	var board models.OfficerRecord
	applySectionContext(&board, "Board of Directors")
	assert.True(t, board.IsDirector)

	var exec models.OfficerRecord
	applySectionContext(&exec, "Executive Officers of the Registrant")
	assert.True(t, exec.IsOfficer)
	assert.True(t, exec.IsExecutive)

	officer := models.OfficerRecord{IsOfficer: true}
	applySectionContext(&officer, "Board of Directors")
	assert.False(t, officer.IsDirector, "existing role flags are not overridden")
}

func TestParseAge(t *testing.T) {
	require.NotNil(t, parseAge(" 54 ", 25, 100))
	assert.Equal(t, 54, *parseAge("54", 25, 100))
	assert.Nil(t, parseAge("24", 25, 100))
	assert.Nil(t, parseAge("101", 25, 100))
	assert.Nil(t, parseAge("n/a", 25, 100))
}
