// Package edgar provides the rate-limited SEC EDGAR client: company
// submissions, filing indexes, document bodies, Form 4 XML, EFTS discovery
// and the ticker registry.
//
// API documentation: https://www.sec.gov/developer
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"edgarintel/pkg/core/config"
)

const (
	submissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	archivesBaseURL   = "https://www.sec.gov/Archives/edgar/data/%s/%s"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
	eftsSearchURL     = "https://efts.sec.gov/LATEST/search-index"

	// SEC fair-access ceiling.
	requestsPerSecond = 10
)

// FetchError carries the HTTP context of a failed EDGAR request.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("edgar: fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("edgar: fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a FetchError for a 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// CompanyInfo is the submissions JSON for one company.
type CompanyInfo struct {
	CIK                  string   `json:"cik"`
	Name                 string   `json:"name"`
	SIC                  string   `json:"sic"`
	SICDescription       string   `json:"sicDescription"`
	Tickers              []string `json:"tickers"`
	Exchanges            []string `json:"exchanges"`
	StateOfIncorporation string   `json:"stateOfIncorporation"`
	Filings              Filings  `json:"filings"`
}

// Filings wraps the recent filing block.
type Filings struct {
	Recent RecentFilings `json:"recent"`
}

// RecentFilings holds EDGAR's parallel filing arrays.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	Size            []int    `json:"size"`
}

// Filing is one filing denormalized from the parallel arrays.
type Filing struct {
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date"`
	ReportDate      string `json:"report_date,omitempty"`
	FormType        string `json:"form_type"`
	PrimaryDocument string `json:"primary_document"`
	Size            int    `json:"size,omitempty"`
	URL             string `json:"url"`
}

// Filer is a company discovered through EFTS full-text search.
type Filer struct {
	CIK  string `json:"cik"`
	Name string `json:"name"`
}

// Client is the rate-limited EDGAR fetcher. All outbound requests pass
// through one shared limiter, so concurrent callers serialize on it.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	log        zerolog.Logger

	tickerMu    sync.RWMutex
	tickerCache []tickerEntry
}

// NewClient builds a Client. The user agent must pass SEC's
// identifier-email convention; construction fails otherwise.
func NewClient(userAgent string, log zerolog.Logger) (*Client, error) {
	if err := config.ValidateUserAgent(userAgent); err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		userAgent:  userAgent,
		log:        log.With().Str("component", "edgar").Logger(),
	}, nil
}

// NormalizeCIK strips non-digits and zero-pads to 10.
func NormalizeCIK(cik string) string {
	var digits strings.Builder
	for _, r := range cik {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return fmt.Sprintf("%010s", strings.TrimLeft(digits.String(), "0"))
}

// fetch performs one rate-limited GET and returns the body. 4xx and 5xx
// statuses come back as *FetchError; the client never retries.
func (c *Client) fetch(ctx context.Context, url string, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// GetCompanyInfo retrieves the submissions JSON for a CIK.
func (c *Client) GetCompanyInfo(ctx context.Context, cik string) (*CompanyInfo, error) {
	cik = NormalizeCIK(cik)
	body, err := c.fetch(ctx, fmt.Sprintf(submissionsURL, cik), "application/json")
	if err != nil {
		return nil, err
	}

	var info CompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("edgar: parse submissions for CIK %s: %w", cik, err)
	}
	info.CIK = cik
	return &info, nil
}

// GetCompanyFilings fetches submissions and filters the recent filings by
// form type. Pass nil formTypes for all; limit 0 means no limit.
func (c *Client) GetCompanyFilings(ctx context.Context, cik string, formTypes []string, limit int) ([]Filing, error) {
	info, err := c.GetCompanyInfo(ctx, cik)
	if err != nil {
		return nil, err
	}
	return FilterFilings(info, formTypes, limit), nil
}

// FilterFilings denormalizes the parallel arrays into Filing values.
func FilterFilings(info *CompanyInfo, formTypes []string, limit int) []Filing {
	recent := info.Filings.Recent
	wanted := make(map[string]bool, len(formTypes))
	for _, ft := range formTypes {
		wanted[ft] = true
	}

	cikStripped := strings.TrimLeft(info.CIK, "0")
	filings := make([]Filing, 0)
	for i := range recent.AccessionNumber {
		if len(formTypes) > 0 && !wanted[recent.Form[i]] {
			continue
		}
		accNoDash := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		doc := ""
		if i < len(recent.PrimaryDocument) {
			doc = recent.PrimaryDocument[i]
		}
		f := Filing{
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      recent.FilingDate[i],
			FormType:        recent.Form[i],
			PrimaryDocument: doc,
			URL:             fmt.Sprintf(archivesBaseURL, cikStripped, accNoDash+"/"+doc),
		}
		if i < len(recent.ReportDate) {
			f.ReportDate = recent.ReportDate[i]
		}
		if i < len(recent.Size) {
			f.Size = recent.Size[i]
		}
		filings = append(filings, f)
		if limit > 0 && len(filings) >= limit {
			break
		}
	}
	return filings
}

// GetFilingDocument downloads the primary document body for a filing.
func (c *Client) GetFilingDocument(ctx context.Context, cik string, filing Filing) (string, error) {
	url := filing.URL
	if url == "" {
		accNoDash := strings.ReplaceAll(filing.AccessionNumber, "-", "")
		url = fmt.Sprintf(archivesBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), accNoDash+"/"+filing.PrimaryDocument)
	}
	body, err := c.fetch(ctx, url, "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// IndexEntry is one item of a filing directory index.
type IndexEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size string `json:"size"`
}

type filingIndex struct {
	Directory struct {
		Item []IndexEntry `json:"item"`
	} `json:"directory"`
}

// GetFilingIndex lists the documents inside a filing directory.
func (c *Client) GetFilingIndex(ctx context.Context, cik string, filing Filing) ([]IndexEntry, error) {
	accNoDash := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	url := fmt.Sprintf(archivesBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), accNoDash+"/index.json")
	body, err := c.fetch(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	var idx filingIndex
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("edgar: parse filing index %s: %w", filing.AccessionNumber, err)
	}
	return idx.Directory.Item, nil
}

var exhibit21Pattern = regexp.MustCompile(`(?i)(^|[^a-z0-9])ex[-_.]?21`)

// GetExhibit21 fetches the Exhibit 21 subsidiary list attached to a 10-K.
// A missing exhibit is not an error: ("", nil) means not present.
func (c *Client) GetExhibit21(ctx context.Context, cik string, filing Filing) (string, error) {
	entries, err := c.GetFilingIndex(ctx, cik, filing)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	var name string
	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		if !strings.HasSuffix(lower, ".htm") && !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".txt") {
			continue
		}
		if exhibit21Pattern.MatchString(lower) {
			name = e.Name
			break
		}
	}
	if name == "" {
		return "", nil
	}

	accNoDash := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	url := fmt.Sprintf(archivesBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), accNoDash+"/"+name)
	body, err := c.fetch(ctx, url, "text/html")
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return string(body), nil
}

// GetForm4XML fetches the ownership XML document of a Form 4 filing.
// Returns ("", nil) when the filing carries no XML document (pre-2005
// HTML-only Form 4s).
func (c *Client) GetForm4XML(ctx context.Context, cik string, filing Filing) (string, error) {
	// The primary document of modern Form 4s is already the XML.
	if strings.HasSuffix(strings.ToLower(filing.PrimaryDocument), ".xml") {
		body, err := c.GetFilingDocument(ctx, cik, filing)
		if err != nil {
			return "", err
		}
		return body, nil
	}

	entries, err := c.GetFilingIndex(ctx, cik, filing)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	var name string
	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		if !strings.HasSuffix(lower, ".xml") {
			continue
		}
		if strings.Contains(lower, "primary_doc") || strings.Contains(lower, "form4") {
			name = e.Name
			break
		}
		if name == "" {
			name = e.Name
		}
	}
	if name == "" {
		return "", nil
	}

	accNoDash := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	url := fmt.Sprintf(archivesBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), accNoDash+"/"+name)
	body, err := c.fetch(ctx, url, "application/xml")
	if err != nil {
		return "", err
	}
	return string(body), nil
}
