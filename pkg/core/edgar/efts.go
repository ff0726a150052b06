package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const eftsPageSize = 100

type eftsResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				CIKs         []string `json:"ciks"`
				DisplayNames []string `json:"display_names"`
				FileDate     string   `json:"file_date"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Trailing "(CIK 0001234567)" and "(AAPL, NASDAQ)" parentheticals on EFTS
// display names.
var (
	cikParenPattern    = regexp.MustCompile(`\s*\(CIK\s+(\d+)\)\s*$`)
	tickerParenPattern = regexp.MustCompile(`\s*\([A-Z0-9.,\- ]+\)\s*$`)
)

// ParseDisplayName splits an EFTS display name into a clean company name
// and, when present, its CIK.
func ParseDisplayName(display string) (name, cik string) {
	name = strings.TrimSpace(display)
	if m := cikParenPattern.FindStringSubmatch(name); m != nil {
		cik = NormalizeCIK(m[1])
		name = strings.TrimSpace(cikParenPattern.ReplaceAllString(name, ""))
	}
	// Strip a remaining ticker/exchange parenthetical, e.g. "(AAPL, NASDAQ)".
	name = strings.TrimSpace(tickerParenPattern.ReplaceAllString(name, ""))
	return name, cik
}

// discoverFilers pages through EFTS for one form type, deduplicating filers
// by CIK. Pagination stops on the first empty page.
func (c *Client) discoverFilers(ctx context.Context, form, startDate, endDate string, maxResults int) ([]Filer, error) {
	seen := make(map[string]bool)
	var filers []Filer

	for from := 0; ; from += eftsPageSize {
		q := url.Values{}
		q.Set("forms", form)
		q.Set("dateRange", "custom")
		q.Set("startdt", startDate)
		q.Set("enddt", endDate)
		q.Set("from", fmt.Sprintf("%d", from))

		body, err := c.fetch(ctx, eftsSearchURL+"?"+q.Encode(), "application/json")
		if err != nil {
			return filers, err
		}

		var page eftsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return filers, fmt.Errorf("edgar: parse EFTS page from=%d: %w", from, err)
		}
		if len(page.Hits.Hits) == 0 {
			break
		}

		for _, hit := range page.Hits.Hits {
			for i, display := range hit.Source.DisplayNames {
				name, cik := ParseDisplayName(display)
				if cik == "" && i < len(hit.Source.CIKs) {
					cik = NormalizeCIK(hit.Source.CIKs[i])
				}
				if cik == "" || seen[cik] {
					continue
				}
				seen[cik] = true
				filers = append(filers, Filer{CIK: cik, Name: name})
				if maxResults > 0 && len(filers) >= maxResults {
					return filers, nil
				}
			}
		}
	}
	return filers, nil
}

// GetRecent8KFilers discovers companies that filed an 8-K in the last
// daysBack days.
func (c *Client) GetRecent8KFilers(ctx context.Context, daysBack int) ([]Filer, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)
	return c.discoverFilers(ctx, "8-K", start.Format("2006-01-02"), end.Format("2006-01-02"), 0)
}

// GetRecentForm4Filers discovers companies with Form 4 activity since
// sinceDate (YYYY-MM-DD). maxResults 0 means unbounded.
func (c *Client) GetRecentForm4Filers(ctx context.Context, sinceDate string, maxResults int) ([]Filer, error) {
	return c.discoverFilers(ctx, "4", sinceDate, time.Now().Format("2006-01-02"), maxResults)
}
