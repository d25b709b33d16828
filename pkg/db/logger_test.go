package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearbyu-loyalty/pkg/middleware"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestZapGormLoggerTagsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapGormLogger(zap.New(core), gormlogger.Warn, false)
	ctx := middleware.WithRequestID(context.Background(), "req-1")
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, errors.New("disk I/O error"))
	l.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "query failed", entries[0].Message)
	require.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	require.Equal(t, "slow query", entries[1].Message)
}

func TestZapGormLoggerSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapGormLogger(zap.New(core), gormlogger.Info, true).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	require.Zero(t, logs.Len())
}
