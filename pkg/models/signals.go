package models

import "time"

// Signal levels, ordered. Combined levels extend the base set.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"

	// CombinedHighBearish flags a high base signal with insider selling.
	CombinedHighBearish = "high_bearish"
)

// TradeType is the resolved classification of a Form 4 transaction.
type TradeType string

const (
	TradeBuy          TradeType = "buy"
	TradeSell         TradeType = "sell"
	TradeAward        TradeType = "award"
	TradeExerciseHold TradeType = "exercise_hold"
	TradeExerciseSell TradeType = "exercise_sell"
	TradeDisposition  TradeType = "disposition"
	TradeGift         TradeType = "gift"
	TradeTax          TradeType = "tax"
	TradeConversion   TradeType = "conversion"
	TradeWill         TradeType = "will"
	TradeOther        TradeType = "other"
)

// Bullish reports whether a trade type signals insider conviction.
func (t TradeType) Bullish() bool {
	return t == TradeBuy || t == TradeExerciseHold
}

// Bearish reports whether a trade type signals insider exit.
func (t TradeType) Bearish() bool {
	return t == TradeSell || t == TradeDisposition || t == TradeExerciseSell
}

// BuyerActivity aggregates one insider's purchases inside a cluster window.
type BuyerActivity struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	TotalValue float64 `json:"total_value"`
	TradeCount int     `json:"trade_count"`
}

// InsiderCluster is a detected multi-buyer window for one company.
type InsiderCluster struct {
	CompanyCIK    string          `json:"company_cik"`
	CompanyName   string          `json:"company_name,omitempty"`
	Ticker        string          `json:"ticker,omitempty"`
	WindowStart   string          `json:"window_start"` // YYYY-MM-DD
	WindowEnd     string          `json:"window_end"`
	NumBuyers     int             `json:"num_buyers"`
	TotalBuyValue float64         `json:"total_buy_value"`
	Level         string          `json:"level"`
	Summary       string          `json:"summary"`
	Buyers        []BuyerActivity `json:"buyers"`
}

// NotableTrade is a tagged large purchase surfaced in the feed.
type NotableTrade struct {
	InsiderName string  `json:"insider_name"`
	Value       float64 `json:"value"`
	Date        string  `json:"date"`
	Tag         string  `json:"tag"` // "Nd before filing" / "Nd after filing"
}

// InsiderContext layers Form 4 activity around one filing signal.
type InsiderContext struct {
	NetDirection    string         `json:"net_direction"` // buying | selling | mixed | none
	TotalBuyValue   float64        `json:"total_buy_value"`
	TotalSellValue  float64        `json:"total_sell_value"`
	DistinctBuyers  int            `json:"distinct_buyers"`
	DistinctSellers int            `json:"distinct_sellers"`
	ClusterActivity bool           `json:"cluster_activity"`
	NotableTrades   []NotableTrade `json:"notable_trades,omitempty"`
	PersonMatches   []string       `json:"person_matches,omitempty"`
}

// FeedSignal is one entry of the ranked M&A feed.
type FeedSignal struct {
	CompanyCIK      string          `json:"company_cik"`
	CompanyName     string          `json:"company_name"`
	Ticker          string          `json:"ticker,omitempty"`
	AccessionNumber string          `json:"accession_number"`
	FilingDate      string          `json:"filing_date"`
	Items           []string        `json:"items"`
	Level           string          `json:"level"`
	Summary         string          `json:"summary"`
	CombinedLevel   string          `json:"combined_level"`
	InsiderContext  *InsiderContext `json:"insider_context,omitempty"`
}

// EvidenceStep is one link of an evidence chain backing a derived claim.
type EvidenceStep struct {
	Fact         string  `json:"fact"`
	ClaimType    string  `json:"claim_type"`
	SourceFiling string  `json:"source_filing,omitempty"`
	RawText      string  `json:"raw_text,omitempty"`
	RawTextHash  string  `json:"raw_text_hash,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// EvidenceChain substantiates a connection or risk claim end to end.
type EvidenceChain struct {
	Steps             []EvidenceStep `json:"steps"`
	OverallConfidence float64        `json:"overall_confidence"`
}

// ConnectionClaim is a shortest path between two entities plus its evidence.
type ConnectionClaim struct {
	FromID   string        `json:"from_id"`
	FromName string        `json:"from_name"`
	ToID     string        `json:"to_id"`
	ToName   string        `json:"to_name"`
	Hops     int           `json:"hops"`
	Evidence EvidenceChain `json:"evidence"`
}

// RiskFactor is one triggered risk heuristic.
type RiskFactor struct {
	Name       string       `json:"name"`
	Weight     int          `json:"weight"`
	Detail     string       `json:"detail"`
	Confidence float64      `json:"confidence"`
	Evidence   EvidenceStep `json:"evidence"`
}

// RiskAssessment is the weighted outcome of all risk factors.
type RiskAssessment struct {
	EntityID          string       `json:"entity_id"`
	EntityName        string       `json:"entity_name"`
	RiskScore         int          `json:"risk_score"`
	RiskLevel         string       `json:"risk_level"` // LOW | MEDIUM | HIGH | CRITICAL
	Factors           []RiskFactor `json:"factors"`
	OverallConfidence float64      `json:"overall_confidence"`
}

// SanctionsExposure summarizes proximity to sanctioned nodes.
type SanctionsExposure struct {
	EntityID           string          `json:"entity_id"`
	DirectlySanctioned bool            `json:"directly_sanctioned"`
	SanctionedOwners   []string        `json:"sanctioned_owners,omitempty"`
	SanctionedOfficers []string        `json:"sanctioned_officers,omitempty"`
	Paths              []SanctionsPath `json:"paths,omitempty"`
	RiskLevel          string          `json:"risk_level"` // NONE | LOW | MEDIUM | HIGH
}

// SanctionsPath is one path from the start entity to a sanctioned node.
type SanctionsPath struct {
	TargetName string   `json:"target_name"`
	TargetUID  string   `json:"target_uid,omitempty"`
	Hops       int      `json:"hops"`
	NodeNames  []string `json:"node_names"`
}

// SignalVerdict grades a past cluster signal against what followed.
type SignalVerdict string

const (
	VerdictHit        SignalVerdict = "hit"
	VerdictPartialHit SignalVerdict = "partial_hit"
	VerdictMiss       SignalVerdict = "miss"
	VerdictPending    SignalVerdict = "pending"
	VerdictNoData     SignalVerdict = "no_data"
)

// SignalOutcome is the retroactive scoring of one cluster signal.
type SignalOutcome struct {
	CompanyCIK   string        `json:"company_cik"`
	Ticker       string        `json:"ticker,omitempty"`
	Level        string        `json:"level"`
	WindowEnd    string        `json:"window_end"`
	FollowedBy8K bool          `json:"followed_by_8k"`
	Return30     *float64      `json:"return_30,omitempty"`
	Return60     *float64      `json:"return_60,omitempty"`
	Return90     *float64      `json:"return_90,omitempty"`
	Verdict      SignalVerdict `json:"verdict"`
}

// AccuracyReport aggregates outcomes per signal level.
type AccuracyReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	ByLevel     map[string]LevelAccuracy `json:"by_level"`
	Outcomes    []SignalOutcome          `json:"outcomes"`
	Parameters  AccuracyReportParameters `json:"parameters"`
}

// LevelAccuracy is the per-level rollup.
type LevelAccuracy struct {
	Signals      int      `json:"signals"`
	Hits         int      `json:"hits"`
	PartialHits  int      `json:"partial_hits"`
	Misses       int      `json:"misses"`
	Pending      int      `json:"pending"`
	NoData       int      `json:"no_data"`
	HitRate      float64  `json:"hit_rate"`
	AvgReturn30  *float64 `json:"avg_return_30,omitempty"`
	AvgReturn60  *float64 `json:"avg_return_60,omitempty"`
	AvgReturn90  *float64 `json:"avg_return_90,omitempty"`
	FollowRate8K float64  `json:"follow_rate_8k"`
}

// AccuracyReportParameters keys the report cache.
type AccuracyReportParameters struct {
	LookbackDays     int    `json:"lookback_days"`
	MinSignalAgeDays int    `json:"min_signal_age_days"`
	MinLevel         string `json:"min_level"`
}

// PricePoint is one daily close from the PriceProvider.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}
