package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "INSERT INTO shipments ...", 1 }

	tests := []struct {
		name    string
		begin   time.Time
		err     error
		message string
		level   zapcore.Level
	}{
		{"error", time.Now(), errors.New("connection reset"), "SQL Error", zapcore.ErrorLevel},
		{"unique violation", time.Now(), gorm.ErrDuplicatedKey, "SQL unique violation", zapcore.DebugLevel},
		{"wrapped unique violation", time.Now(), fmt.Errorf("create shipment: %w", gorm.ErrDuplicatedKey), "SQL unique violation", zapcore.DebugLevel},
		{"pgx unique violation", time.Now(), &pgconn.PgError{Code: "23505"}, "SQL unique violation", zapcore.DebugLevel},
		{"unique violation text is an error", time.Now(), errors.New("UNIQUE constraint failed: shipments.code"), "SQL Error", zapcore.ErrorLevel},
		{"slow", time.Now().Add(-time.Second), nil, "Slow SQL", zapcore.WarnLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), gormlogger.Warn)

			gl.Trace(context.Background(), tc.begin, sql, tc.err)

			entries := recorded.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tc.message, entries[0].Message)
				assert.Equal(t, tc.level, entries[0].Level)
			}
		})
	}
}

func TestGormLogger_IgnoresNotFoundAndSilent(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)
	sql := func() (string, int64) { return "SELECT 1", 0 }

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))

	assert.Equal(t, 0, recorded.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
