package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	syncOnce    sync.Once
	syncRuns    metric.Int64Counter
	syncCreated metric.Int64Counter
	syncUpdated metric.Int64Counter
	syncFailed  metric.Int64Counter
)

func syncInstruments() {
	m := Meter(instrumentationScope + "/sync")
	syncRuns, _ = m.Int64Counter("ww.sync.runs",
		metric.WithDescription("Synchronization operations executed"),
	)
	syncCreated, _ = m.Int64Counter("ww.sync.items.created",
		metric.WithDescription("Items created by synchronization operations"),
	)
	syncUpdated, _ = m.Int64Counter("ww.sync.items.updated",
		metric.WithDescription("Items updated by synchronization operations"),
	)
	syncFailed, _ = m.Int64Counter("ww.sync.items.failed",
		metric.WithDescription("Items skipped or failed during synchronization"),
	)
}

// RecordSync counts the outcome of one import, export or sync run.
// No-op unless telemetry is enabled.
func RecordSync(ctx context.Context, op string, created, updated, failed int64) {
	if !Enabled() {
		return
	}
	syncOnce.Do(syncInstruments)
	attrs := metric.WithAttributes(attribute.String("ww.sync.operation", op))
	syncRuns.Add(ctx, 1, attrs)
	if created > 0 {
		syncCreated.Add(ctx, created, attrs)
	}
	if updated > 0 {
		syncUpdated.Add(ctx, updated, attrs)
	}
	if failed > 0 {
		syncFailed.Add(ctx, failed, attrs)
	}
}
