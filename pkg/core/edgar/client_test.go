package edgar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCIK(t *testing.T) {
	assert.Equal(t, "0000320193", NormalizeCIK("320193"))
	assert.Equal(t, "0000320193", NormalizeCIK("0000320193"))
	assert.Equal(t, "0000320193", NormalizeCIK("CIK 320193"))
	assert.Equal(t, "0001234567", NormalizeCIK("1234567"))
}

func TestFilterFilings(t *testing.T) {
	info := &CompanyInfo{
		CIK: "0000320193",
		Filings: Filings{Recent: RecentFilings{
			AccessionNumber: []string{"0001-25-000001", "0001-25-000002", "0001-25-000003"},
			FilingDate:      []string{"2025-03-10", "2025-03-08", "2025-03-05"},
			ReportDate:      []string{"2025-03-10", "2025-03-07", "2025-03-05"},
			Form:            []string{"8-K", "4", "8-K"},
			PrimaryDocument: []string{"body8k.htm", "form4.xml", "other8k.htm"},
			Size:            []int{1000, 2000, 3000},
		}},
	}

	all := FilterFilings(info, nil, 0)
	require.Len(t, all, 3)
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000125000001/body8k.htm",
		all[0].URL)
	assert.Equal(t, "2025-03-10", all[0].FilingDate)
	assert.Equal(t, 1000, all[0].Size)

	eightKs := FilterFilings(info, []string{"8-K"}, 0)
	require.Len(t, eightKs, 2)
	assert.Equal(t, "0001-25-000001", eightKs[0].AccessionNumber)
	assert.Equal(t, "0001-25-000003", eightKs[1].AccessionNumber)

	limited := FilterFilings(info, []string{"8-K"}, 1)
	require.Len(t, limited, 1)
}

func TestFetchError(t *testing.T) {
	notFound := &FetchError{URL: "https://data.sec.gov/x", StatusCode: 404}
	assert.True(t, IsNotFound(notFound))
	assert.Contains(t, notFound.Error(), "status 404")

	wrapped := fmt.Errorf("scan: %w", notFound)
	assert.True(t, IsNotFound(wrapped))

	serverErr := &FetchError{URL: "u", StatusCode: 503}
	assert.False(t, IsNotFound(serverErr))
	assert.False(t, IsNotFound(nil))
}

func TestExhibit21Pattern(t *testing.T) {
	matching := []string{"ex21.htm", "ex-21.htm", "ex_21.htm", "ex.21.htm", "aapl-ex21_1.htm", "ex211.htm"}
	for _, name := range matching {
		assert.True(t, exhibit21Pattern.MatchString(name), name)
	}
	nonMatching := []string{"ex10.htm", "index21.htm", "annex21.htm", "body8k.htm"}
	for _, name := range nonMatching {
		assert.False(t, exhibit21Pattern.MatchString(name), name)
	}
}
