package otelcol

import (
	"context"
	"testing"

	"nearbyu-loyalty/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestProvidersWithoutCollector(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Default()

	tp, err := NewTracerProvider(lc, cfg)
	require.NoError(t, err)
	mp := NewMeterProvider(lc, cfg)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	counter, err := mp.Meter("test").Int64Counter("ops")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	lc.RequireStart().RequireStop()
}
