// Package ofac downloads and parses the OFAC Specially Designated
// Nationals (SDN) list.
package ofac

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// SDNListURL is the canonical download location.
	SDNListURL = "https://www.treasury.gov/ofac/downloads/sdn.xml"

	// Cached copies are trusted for a week; OFAC publishes irregularly.
	cacheMaxAge = 7 * 24 * time.Hour
)

// Client downloads the SDN list with a local file cache.
type Client struct {
	httpClient *http.Client
	cacheDir   string
	log        zerolog.Logger
}

// NewClient builds an OFAC client caching under cacheDir.
func NewClient(cacheDir string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		cacheDir:   cacheDir,
		log:        log.With().Str("component", "ofac").Logger(),
	}
}

// FetchSDN returns the SDN XML, serving a cached copy when one newer than
// seven days exists. force bypasses the cache.
func (c *Client) FetchSDN(ctx context.Context, force bool) ([]byte, error) {
	if !force {
		if data, ok := c.readCache(); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SDNListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ofac: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ofac: download SDN list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ofac: SDN download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ofac: read SDN body: %w", err)
	}

	c.writeCache(data)
	c.log.Info().Int("bytes", len(data)).Msg("downloaded SDN list")
	return data, nil
}

func (c *Client) cachePath(day time.Time) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("sdn_%s.xml", day.Format("2006-01-02")))
}

// readCache returns the newest cached SDN file younger than cacheMaxAge.
func (c *Client) readCache() ([]byte, bool) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return nil, false
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "sdn_") && strings.HasSuffix(e.Name(), ".xml") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, false
	}
	sort.Strings(names)
	newest := names[len(names)-1]

	// Date is embedded in the filename: sdn_YYYY-MM-DD.xml.
	stamp := strings.TrimSuffix(strings.TrimPrefix(newest, "sdn_"), ".xml")
	day, err := time.Parse("2006-01-02", stamp)
	if err != nil || time.Since(day) > cacheMaxAge {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(c.cacheDir, newest))
	if err != nil {
		return nil, false
	}
	c.log.Debug().Str("file", newest).Msg("serving SDN list from cache")
	return data, true
}

func (c *Client) writeCache(data []byte) {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		c.log.Warn().Err(err).Msg("cannot create OFAC cache dir")
		return
	}
	path := c.cachePath(time.Now())
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cannot write OFAC cache")
	}
}
