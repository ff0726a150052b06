package signals

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// priceDateTolerance is how far a close may sit from a target date and
// still count for that horizon.
const priceDateTolerance = 7

// accuracyCacheTTL bounds how long a computed report is served.
const accuracyCacheTTL = 4 * time.Hour

// hitReturnThreshold is the best-horizon return that counts as a hit.
const hitReturnThreshold = 10.0

// PriceProvider supplies daily closes for a ticker. Implementations are
// external; tests use fixtures.
type PriceProvider interface {
	GetPriceData(ctx context.Context, ticker string, periodDays int) ([]models.PricePoint, error)
}

// AccuracyEngine retroactively scores past cluster signals against price
// moves and follow-on 8-K events.
type AccuracyEngine struct {
	store  graph.Querier
	prices PriceProvider
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]cachedReport
}

type cachedReport struct {
	at     time.Time
	report *models.AccuracyReport
}

// NewAccuracyEngine builds an AccuracyEngine.
func NewAccuracyEngine(store graph.Querier, prices PriceProvider, log zerolog.Logger) *AccuracyEngine {
	return &AccuracyEngine{
		store:  store,
		prices: prices,
		log:    log.With().Str("component", "accuracy").Logger(),
		cache:  make(map[string]cachedReport),
	}
}

// Report scores every cluster signal in the lookback older than
// minSignalAgeDays. Results are cached for four hours per parameter set.
func (e *AccuracyEngine) Report(ctx context.Context, lookbackDays, minSignalAgeDays int, minLevel string) (*models.AccuracyReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = 180
	}
	if minSignalAgeDays <= 0 {
		minSignalAgeDays = 30
	}

	key := fmt.Sprintf("%d_%d_%s", lookbackDays, minSignalAgeDays, minLevel)
	e.mu.Lock()
	if c, ok := e.cache[key]; ok && time.Since(c.at) < accuracyCacheTTL {
		e.mu.Unlock()
		return c.report, nil
	}
	e.mu.Unlock()

	clusters, err := NewClusterEngine(e.store, e.log).DetectClusters(ctx, lookbackDays, minLevel)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	report := &models.AccuracyReport{
		GeneratedAt: time.Now().UTC(),
		ByLevel:     make(map[string]models.LevelAccuracy),
		Parameters: models.AccuracyReportParameters{
			LookbackDays:     lookbackDays,
			MinSignalAgeDays: minSignalAgeDays,
			MinLevel:         minLevel,
		},
	}

	for _, cluster := range clusters {
		outcome := models.SignalOutcome{
			CompanyCIK: cluster.CompanyCIK,
			Ticker:     cluster.Ticker,
			Level:      cluster.Level,
			WindowEnd:  cluster.WindowEnd,
		}

		ageDays := daysBetween(cluster.WindowEnd, today)
		if ageDays < minSignalAgeDays {
			outcome.Verdict = models.VerdictPending
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}

		followed, err := e.followedBy8K(ctx, cluster.CompanyCIK, cluster.WindowEnd)
		if err != nil {
			return nil, err
		}
		outcome.FollowedBy8K = followed

		var closes []models.PricePoint
		if cluster.Ticker != "" && e.prices != nil {
			closes, err = e.prices.GetPriceData(ctx, cluster.Ticker, lookbackDays+120)
			if err != nil {
				e.log.Warn().Err(err).Str("ticker", cluster.Ticker).Msg("price data unavailable")
			}
		}
		outcome.Return30, outcome.Return60, outcome.Return90 = ComputePriceOutcomes(closes, cluster.WindowEnd)
		outcome.Verdict = verdict(outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	aggregate(report)

	e.mu.Lock()
	e.cache[key] = cachedReport{at: time.Now(), report: report}
	e.mu.Unlock()
	return report, nil
}

// ComputePriceOutcomes returns the percentage change from the close
// nearest the signal date to the closes nearest +30, +60 and +90 days.
// Horizons with no close within seven days stay nil; empty input yields
// all nil.
func ComputePriceOutcomes(closes []models.PricePoint, signalDate string) (r30, r60, r90 *float64) {
	base := nearestClose(closes, signalDate)
	if base == nil || base.Close == 0 {
		return nil, nil, nil
	}
	pct := func(target string) *float64 {
		p := nearestClose(closes, target)
		if p == nil {
			return nil
		}
		v := (p.Close - base.Close) / base.Close * 100
		return &v
	}
	return pct(shiftDate(signalDate, 30)), pct(shiftDate(signalDate, 60)), pct(shiftDate(signalDate, 90))
}

func nearestClose(closes []models.PricePoint, target string) *models.PricePoint {
	targetDay, err := time.Parse("2006-01-02", target)
	if err != nil {
		return nil
	}
	var best *models.PricePoint
	bestDist := math.MaxInt
	for i, p := range closes {
		day, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		dist := int(math.Abs(day.Sub(targetDay).Hours() / 24))
		if dist < bestDist {
			bestDist = dist
			best = &closes[i]
		}
	}
	if best == nil || bestDist > priceDateTolerance {
		return nil
	}
	return best
}

func verdict(o models.SignalOutcome) models.SignalVerdict {
	best := bestReturn(o)
	switch {
	case o.FollowedBy8K:
		return models.VerdictHit
	case best == nil:
		return models.VerdictNoData
	case *best >= hitReturnThreshold:
		return models.VerdictHit
	case *best >= 0:
		return models.VerdictPartialHit
	default:
		return models.VerdictMiss
	}
}

func bestReturn(o models.SignalOutcome) *float64 {
	var best *float64
	for _, r := range []*float64{o.Return30, o.Return60, o.Return90} {
		if r == nil {
			continue
		}
		if best == nil || *r > *best {
			best = r
		}
	}
	return best
}

func (e *AccuracyEngine) followedBy8K(ctx context.Context, cik, windowEnd string) (bool, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c:Company {cik: $cik})-[:FILED_EVENT]->(ev:Event)
		WHERE ev.is_ma_signal = true AND ev.filing_date > $after
		RETURN count(ev) AS n`,
		map[string]any{"cik": cik, "after": windowEnd})
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && asFloat(rows[0]["n"]) > 0, nil
}

func aggregate(report *models.AccuracyReport) {
	type sums struct {
		acc   models.LevelAccuracy
		r30   []float64
		r60   []float64
		r90   []float64
		f8k   int
		total int
	}
	byLevel := make(map[string]*sums)
	for _, o := range report.Outcomes {
		s := byLevel[o.Level]
		if s == nil {
			s = &sums{}
			byLevel[o.Level] = s
		}
		s.total++
		s.acc.Signals++
		switch o.Verdict {
		case models.VerdictHit:
			s.acc.Hits++
		case models.VerdictPartialHit:
			s.acc.PartialHits++
		case models.VerdictMiss:
			s.acc.Misses++
		case models.VerdictPending:
			s.acc.Pending++
		case models.VerdictNoData:
			s.acc.NoData++
		}
		if o.FollowedBy8K {
			s.f8k++
		}
		if o.Return30 != nil {
			s.r30 = append(s.r30, *o.Return30)
		}
		if o.Return60 != nil {
			s.r60 = append(s.r60, *o.Return60)
		}
		if o.Return90 != nil {
			s.r90 = append(s.r90, *o.Return90)
		}
	}

	for level, s := range byLevel {
		scored := s.acc.Hits + s.acc.PartialHits + s.acc.Misses
		if scored > 0 {
			s.acc.HitRate = float64(s.acc.Hits) / float64(scored)
		}
		if s.total > 0 {
			s.acc.FollowRate8K = float64(s.f8k) / float64(s.total)
		}
		s.acc.AvgReturn30 = mean(s.r30)
		s.acc.AvgReturn60 = mean(s.r60)
		s.acc.AvgReturn90 = mean(s.r90)
		report.ByLevel[level] = s.acc
	}
}

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	return &m
}

func daysBetween(from, to string) int {
	t1, err1 := time.Parse("2006-01-02", from)
	t2, err2 := time.Parse("2006-01-02", to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(t2.Sub(t1).Hours() / 24)
}
