package signals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// contextWindowDays bounds insider activity considered around a filing.
const contextWindowDays = 60

// notableTradeFloor is the minimum purchase value surfaced in the feed.
const notableTradeFloor = 10_000

// Feed reads stored M&A events and layers insider context onto them.
type Feed struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewFeed builds a Feed over a Querier.
func NewFeed(store graph.Querier, log zerolog.Logger) *Feed {
	return &Feed{store: store, log: log.With().Str("component", "feed").Logger()}
}

// FeedResult is the ranked feed response.
type FeedResult struct {
	Total         int                 `json:"total"`
	ByLevel       map[string]int      `json:"by_level"`
	ByCombined    map[string]int      `json:"by_combined"`
	Signals       []models.FeedSignal `json:"signals"`
	CompanyFilter string              `json:"company_filter,omitempty"`
}

// GetFeed returns M&A-flagged events from the past days, grouped per
// filing, classified, annotated with insider context, and filtered to
// minLevel by combined level. cikFilter narrows to one company when set.
func (f *Feed) GetFeed(ctx context.Context, days, limit int, minLevel, cikFilter string) (*FeedResult, error) {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 50
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	cypher := `
		MATCH (c:Company)-[:FILED_EVENT]->(e:Event)
		WHERE e.is_ma_signal = true AND e.filing_date >= $since`
	params := map[string]any{"since": since}
	if cikFilter != "" {
		cypher += ` AND c.cik = $cik`
		params["cik"] = cikFilter
	}
	cypher += `
		RETURN c.cik AS cik, c.name AS company_name, c.tickers AS tickers,
			e.accession_number AS accession, e.filing_date AS filing_date,
			e.item_number AS item, e.raw_text AS raw_text,
			e.persons_mentioned AS persons
		ORDER BY e.filing_date DESC`

	rows, err := f.store.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	// One filing can carry several M&A items; group before classifying.
	type filingKey struct {
		cik       string
		date      string
		accession string
	}
	type filingGroup struct {
		name     string
		ticker   string
		items    []string
		rawTexts []string
		persons  []string
	}
	groups := make(map[filingKey]*filingGroup)
	var order []filingKey
	for _, row := range rows {
		key := filingKey{}
		key.cik, _ = row["cik"].(string)
		key.date, _ = row["filing_date"].(string)
		key.accession, _ = row["accession"].(string)

		g := groups[key]
		if g == nil {
			g = &filingGroup{}
			g.name, _ = row["company_name"].(string)
			g.ticker = firstTicker(row["tickers"])
			groups[key] = g
			order = append(order, key)
		}
		if item, ok := row["item"].(string); ok {
			g.items = append(g.items, item)
		}
		if raw, ok := row["raw_text"].(string); ok && raw != "" {
			g.rawTexts = append(g.rawTexts, raw)
		}
		g.persons = append(g.persons, asStrings(row["persons"])...)
	}

	result := &FeedResult{
		ByLevel:       make(map[string]int),
		ByCombined:    make(map[string]int),
		CompanyFilter: cikFilter,
	}
	for _, key := range order {
		g := groups[key]
		cls := ClassifySignalLevel(g.items, g.rawTexts)

		insiderCtx, err := f.insiderContext(ctx, key.cik, key.date, g.persons)
		if err != nil {
			f.log.Warn().Err(err).Str("cik", key.cik).Msg("insider context unavailable")
			insiderCtx = nil
		}

		signal := models.FeedSignal{
			CompanyCIK:      key.cik,
			CompanyName:     g.name,
			Ticker:          g.ticker,
			AccessionNumber: key.accession,
			FilingDate:      key.date,
			Items:           g.items,
			Level:           cls.Level,
			Summary:         cls.Summary,
			CombinedLevel:   CombineLevels(cls.Level, insiderCtx),
			InsiderContext:  insiderCtx,
		}
		if levelRank(signal.CombinedLevel) < levelRank(minLevel) {
			continue
		}
		result.Signals = append(result.Signals, signal)
		result.ByLevel[signal.Level]++
		result.ByCombined[signal.CombinedLevel]++
	}

	sort.SliceStable(result.Signals, func(i, j int) bool {
		ri, rj := levelRank(result.Signals[i].CombinedLevel), levelRank(result.Signals[j].CombinedLevel)
		if ri != rj {
			return ri > rj
		}
		return result.Signals[i].FilingDate > result.Signals[j].FilingDate
	})
	if len(result.Signals) > limit {
		result.Signals = result.Signals[:limit]
	}
	result.Total = len(result.Signals)
	return result, nil
}

// CombineLevels layers insider direction onto the base 8-K level.
func CombineLevels(base string, ic *models.InsiderContext) string {
	if ic == nil {
		return base
	}
	switch {
	case base == models.LevelHigh && ic.NetDirection == "buying":
		return models.LevelCritical
	case base == models.LevelHigh && ic.NetDirection == "selling":
		return models.CombinedHighBearish
	case base == models.LevelMedium && ic.NetDirection == "buying":
		return models.LevelHigh
	default:
		return base
	}
}

// insiderContext aggregates Form 4 activity within the context window
// around one filing date.
func (f *Feed) insiderContext(ctx context.Context, cik, filingDate string, personsMentioned []string) (*models.InsiderContext, error) {
	rows, err := f.store.ExecuteQuery(ctx, `
		MATCH (c:Company {cik: $cik})-[:INSIDER_TRADE_OF]->(t:InsiderTransaction)
		RETURN t.transaction_date AS date, t.transaction_code AS code,
			t.transaction_type AS type, t.total_value AS total_value,
			t.insider_name AS insider_name, t.insider_title AS insider_title`,
		map[string]any{"cik": cik})
	if err != nil {
		return nil, err
	}

	windowStart := shiftDate(filingDate, -contextWindowDays)
	windowEnd := shiftDate(filingDate, contextWindowDays)

	ic := &models.InsiderContext{NetDirection: "none"}
	buyers := make(map[string]bool)
	sellers := make(map[string]bool)
	var purchases []models.NotableTrade
	var traderNames []string

	for _, row := range rows {
		date, _ := row["date"].(string)
		if date < windowStart || date > windowEnd {
			continue
		}
		code, _ := row["code"].(string)
		txnType, _ := row["type"].(string)
		name, _ := row["insider_name"].(string)
		title, _ := row["insider_title"].(string)
		value := asFloat(row["total_value"])
		traderNames = append(traderNames, name+"|"+title)

		isBuy := code == "P" || strings.Contains(strings.ToLower(txnType), "purchase")
		isSell := code == "S" || code == "D"
		switch {
		case isBuy:
			ic.TotalBuyValue += value
			buyers[strings.ToLower(name)] = true
			if value >= notableTradeFloor {
				purchases = append(purchases, models.NotableTrade{
					InsiderName: name,
					Value:       value,
					Date:        date,
					Tag:         filingOffsetTag(date, filingDate),
				})
			}
		case isSell:
			ic.TotalSellValue += value
			sellers[strings.ToLower(name)] = true
		}
	}

	ic.DistinctBuyers = len(buyers)
	ic.DistinctSellers = len(sellers)
	ic.ClusterActivity = len(buyers) >= 3 || len(sellers) >= 3
	ic.NetDirection = netDirection(ic.TotalBuyValue, ic.TotalSellValue)

	sort.Slice(purchases, func(i, j int) bool { return purchases[i].Value > purchases[j].Value })
	if len(purchases) > 5 {
		purchases = purchases[:5]
	}
	ic.NotableTrades = purchases
	ic.PersonMatches = matchPersons(personsMentioned, traderNames, ic.TotalBuyValue)
	return ic, nil
}

// netDirection compares unsigned buy and sell totals. Ratios within 1.5x
// of each other with both sides active read as mixed.
func netDirection(buys, sells float64) string {
	switch {
	case buys == 0 && sells == 0:
		return "none"
	case sells == 0 || buys > 1.5*sells:
		return "buying"
	case buys == 0 || sells > 1.5*buys:
		return "selling"
	default:
		return "mixed"
	}
}

func filingOffsetTag(txnDate, filingDate string) string {
	t1, err1 := time.Parse("2006-01-02", txnDate)
	t2, err2 := time.Parse("2006-01-02", filingDate)
	if err1 != nil || err2 != nil {
		return ""
	}
	days := int(t2.Sub(t1).Hours() / 24)
	if days >= 0 {
		return fmt.Sprintf("%dd before filing", days)
	}
	return fmt.Sprintf("%dd after filing", -days)
}

// matchPersons intersects 8-K person mentions with insider trader names
// using 4+ letter keyword overlap, tolerating SEC "LAST FIRST" order
// against the 8-K's "First Last".
func matchPersons(mentioned, traders []string, totalBuys float64) []string {
	var matches []string
	seen := make(map[string]bool)
	for _, trader := range traders {
		parts := strings.SplitN(trader, "|", 2)
		name, title := parts[0], ""
		if len(parts) == 2 {
			title = parts[1]
		}
		traderWords := nameKeywords(name)
		for _, mention := range mentioned {
			if !keywordOverlap(traderWords, nameKeywords(mention)) {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			label := name
			if title != "" {
				label = fmt.Sprintf("%s (%s)", name, title)
			}
			matches = append(matches, fmt.Sprintf("%s mentioned in filing — bought $%.0f", label, totalBuys))
		}
	}
	return matches
}

func nameKeywords(name string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ".,")
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	return words
}

func keywordOverlap(a, b []string) bool {
	for _, w := range a {
		for _, v := range b {
			if w == v {
				return true
			}
		}
	}
	return false
}

// Stats counts the graph's nodes and edges by label for the stats
// endpoint.
func (f *Feed) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	rows, err := f.store.ExecuteQuery(ctx, `
		MATCH (n) RETURN labels(n)[0] AS label, count(n) AS n`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		label, _ := row["label"].(string)
		stats["nodes_"+strings.ToLower(label)] = int(asFloat(row["n"]))
	}

	edgeRows, err := f.store.ExecuteQuery(ctx, `
		MATCH ()-[r]->() RETURN type(r) AS type, count(r) AS n`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range edgeRows {
		typ, _ := row["type"].(string)
		stats["edges_"+strings.ToLower(typ)] = int(asFloat(row["n"]))
	}
	return stats, nil
}

func asStrings(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
