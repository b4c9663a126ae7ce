package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPairsTotal    = "editvec.pairs.total"
	metricPairDuration  = "editvec.pair.duration.seconds"
	metricHunksTotal    = "editvec.hunks.total"
	metricRecordsTotal  = "editvec.records.total"
	metricMissesTotal   = "editvec.resolve.misses.total"
	metricFailuresTotal = "editvec.pairs.failed.total"

	attrChange = "change"
	attrLang   = "language"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// FeatureMetrics counts pipeline work. A nil *FeatureMetrics is valid and
// records nothing.
type FeatureMetrics struct {
	pairs    metric.Int64Counter
	duration metric.Float64Histogram
	hunks    metric.Int64Counter
	records  metric.Int64Counter
	misses   metric.Int64Counter
	failures metric.Int64Counter
}

// NewFeatureMetrics creates the instruments on mt.
func NewFeatureMetrics(mt metric.Meter) (*FeatureMetrics, error) {
	fm := &FeatureMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&fm.pairs, metricPairsTotal, "File pairs processed", "{pair}"},
		{&fm.hunks, metricHunksTotal, "Hunks visited", "{hunk}"},
		{&fm.records, metricRecordsTotal, "Feature records written", "{record}"},
		{&fm.misses, metricMissesTotal, "Novel positions with no matching node", "{position}"},
		{&fm.failures, metricFailuresTotal, "File pairs that failed", "{pair}"},
	}

	for _, c := range counters {
		counter, err := mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}

		*c.dst = counter
	}

	hist, err := mt.Float64Histogram(metricPairDuration,
		metric.WithDescription("Time spent extracting one file pair"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPairDuration, err)
	}

	fm.duration = hist

	return fm, nil
}

// RecordPair records one processed pair.
func (fm *FeatureMetrics) RecordPair(ctx context.Context, language string, hunks, misses int, took time.Duration) {
	if fm == nil {
		return
	}

	lang := metric.WithAttributes(attribute.String(attrLang, language))

	fm.pairs.Add(ctx, 1, lang)
	fm.hunks.Add(ctx, int64(hunks), lang)
	fm.misses.Add(ctx, int64(misses), lang)
	fm.duration.Record(ctx, took.Seconds(), lang)
}

// RecordChanges adds per change-type record counts.
func (fm *FeatureMetrics) RecordChanges(ctx context.Context, counts map[string]int) {
	if fm == nil {
		return
	}

	for change, n := range counts {
		fm.records.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrChange, change)))
	}
}

// RecordFailure counts a pair that could not be processed.
func (fm *FeatureMetrics) RecordFailure(ctx context.Context, language string) {
	if fm == nil {
		return
	}

	fm.failures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrLang, language)))
}
