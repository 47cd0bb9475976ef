package checker

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

func counter(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			var total int64
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestChecksAreRecordedAndLogged(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	rec, err := telemetry.NewRecorder(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var f *Func
	f = MustNew("countdown", binding.Params("n"), func(ctx context.Context, args binding.Binding) (any, error) {
		n := args["n"].(int)
		if n == 0 {
			return 0, nil
		}
		return f.Call(ctx, binding.Args(n-1))
	}, WithRecorder(rec), WithLogger(logger))
	_, err = AttachPrecondition(f, contract.Pre(condition.MustExpr(`n >= 0`)))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.Call(ctx, binding.Args(2))
	require.NoError(t, err)
	_, err = f.Call(ctx, binding.Args(-1))
	require.Error(t, err)

	assert.Equal(t, int64(2), counter(t, reader, "dbc.checks.total"))
	assert.Equal(t, int64(1), counter(t, reader, "dbc.violations.total"))
	assert.Equal(t, int64(2), counter(t, reader, "dbc.suppressions.total"))
	assert.Contains(t, logs.String(), "contract violated")
	assert.Contains(t, logs.String(), "contract check suppressed")
}
