package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/models"
)

// confidenceGate is the threshold below which results still load but also
// land in the review queue.
const confidenceGate = 0.9

// maxReviewTextLen caps raw text persisted with a review item (100 KB).
const maxReviewTextLen = 100 * 1024

// ReviewSink receives failed and low-confidence extractions. Satisfied by
// review.Queue; nil sinks are tolerated (review disabled).
type ReviewSink interface {
	Add(ctx context.Context, item models.ReviewItem) error
}

// FilingContext identifies the filing an extractor is working on.
type FilingContext struct {
	AccessionNumber string
	FilingType      string
	CompanyCIK      string
	CompanyName     string
	FilingDate      string
	FilingURL       string
	SourceFilingID  string
}

// enqueueFailure records an extraction that produced nothing on either path.
func enqueueFailure(ctx context.Context, sink ReviewSink, log zerolog.Logger, fc FilingContext, extractionType, rawText, reason string) {
	if sink == nil {
		return
	}
	item := models.ReviewItem{
		AccessionNumber: fc.AccessionNumber,
		FilingType:      fc.FilingType,
		CompanyCIK:      fc.CompanyCIK,
		CompanyName:     fc.CompanyName,
		ExtractionType:  extractionType,
		RawText:         Truncate(rawText, maxReviewTextLen),
		FailureReason:   reason,
		Status:          models.ReviewPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := sink.Add(ctx, item); err != nil {
		log.Warn().Err(err).Str("accession", fc.AccessionNumber).Msg("cannot enqueue review item")
	}
}

// enqueueLowConfidence records an extraction that produced records below
// the confidence gate. The records still load into the graph.
func enqueueLowConfidence[T any](ctx context.Context, sink ReviewSink, log zerolog.Logger, fc FilingContext, extractionType string, records []T, confidence float64, rawText string) {
	if sink == nil {
		return
	}
	attempted, _ := json.Marshal(records)
	item := models.ReviewItem{
		AccessionNumber:     fc.AccessionNumber,
		FilingType:          fc.FilingType,
		CompanyCIK:          fc.CompanyCIK,
		CompanyName:         fc.CompanyName,
		ExtractionType:      extractionType,
		RawText:             Truncate(rawText, maxReviewTextLen),
		AttemptedExtraction: string(attempted),
		Confidence:          &confidence,
		Status:              models.ReviewPending,
		CreatedAt:           time.Now().UTC(),
	}
	if err := sink.Add(ctx, item); err != nil {
		log.Warn().Err(err).Str("accession", fc.AccessionNumber).Msg("cannot enqueue review item")
	}
}

// finishResult applies the common post-extraction policy: low-confidence
// results go to review, empty results are recorded as failures.
func finishResult[T any](ctx context.Context, sink ReviewSink, log zerolog.Logger, fc FilingContext, extractionType, rawText string, res *models.ExtractionResult[T]) {
	res.FilingDate = fc.FilingDate
	res.FilingURL = fc.FilingURL
	res.Metadata.SourceFilingID = fc.SourceFilingID
	res.Metadata.SourceURL = fc.FilingURL

	if len(res.Records) == 0 {
		enqueueFailure(ctx, sink, log, fc, extractionType, rawText, "no records extracted by rule-based or LLM path")
		return
	}
	if res.Metadata.Confidence < confidenceGate {
		enqueueLowConfidence(ctx, sink, log, fc, extractionType, res.Records, res.Metadata.Confidence, rawText)
	}
}
