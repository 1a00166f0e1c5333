package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	matchCounter      metric.Int64Counter
	completionCounter metric.Int64Counter
	autoReviewCounter metric.Int64Counter
)

// InitMatchingMetrics initializes the marketplace matching metrics.
func InitMatchingMetrics() error {
	meter := otel.Meter("seatmate.matching")

	var err error

	matchCounter, err = meter.Int64Counter(
		"matching.match.count",
		metric.WithDescription("Number of host-guest matches"),
		metric.WithUnit("{match}"),
	)
	if err != nil {
		return err
	}

	completionCounter, err = meter.Int64Counter(
		"matching.transaction.completed.count",
		metric.WithDescription("Number of completed transaction confirmations"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	autoReviewCounter, err = meter.Int64Counter(
		"matching.auto_review.count",
		metric.WithDescription("Number of synthetic reviews inserted by the sweep"),
		metric.WithUnit("{review}"),
	)
	return err
}

// RecordMatch counts one match by path ("select" or "conversation_accept").
func RecordMatch(ctx context.Context, path string) {
	if matchCounter == nil {
		return
	}
	matchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

func RecordCompletion(ctx context.Context) {
	if completionCounter == nil {
		return
	}
	completionCounter.Add(ctx, 1)
}

func RecordAutoReviews(ctx context.Context, n int64) {
	if autoReviewCounter == nil || n == 0 {
		return
	}
	autoReviewCounter.Add(ctx, n)
}
