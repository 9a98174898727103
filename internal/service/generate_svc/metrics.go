package generate_svc

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/antelcat/fsmnsub"

// Metrics holds the OpenTelemetry instruments of the generation service.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// RunDuration tracks wall-clock time of one generation run, labeled by
	// terminal state.
	RunDuration metric.Float64Histogram

	// SpansEmitted counts subtitle spans appended to result collections.
	SpansEmitted metric.Int64Counter
}

func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	runDuration, err := meter.Float64Histogram(
		"fsmnsub.run.duration",
		metric.WithDescription("Wall-clock duration of one generation run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	spansEmitted, err := meter.Int64Counter(
		"fsmnsub.spans.emitted",
		metric.WithDescription("Subtitle spans emitted across all runs"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RunDuration:  runDuration,
		SpansEmitted: spansEmitted,
	}, nil
}
