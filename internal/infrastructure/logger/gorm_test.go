package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Options(t *testing.T) {
	log, _ := observed()

	gl := NewGormLogger(log, gormlogger.Warn)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)
	assert.False(t, gl.fullSQL)

	gl = NewGormLogger(log, gormlogger.Info,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
		WithFullSQL(true),
	)
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
	assert.True(t, gl.fullSQL)
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	log, _ := observed()
	gl := NewGormLogger(log, gormlogger.Warn)

	changed := gl.LogMode(gormlogger.Info).(*GormLogger)
	assert.Equal(t, gormlogger.Info, changed.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-sql")

	t.Run("query at info level", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Info)

		gl.Trace(ctx, time.Now(), sqlFunc("SELECT * FROM invoices", 3), nil)

		entries := logs.FilterMessage("SQL query").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "SELECT * FROM invoices", fields["sql"])
		assert.EqualValues(t, 3, fields["rows"])
		assert.Equal(t, "req-sql", fields["request_id"])
	})

	t.Run("unknown row count is omitted", func(t *testing.T) {
		log, logs := observed()
		NewGormLogger(log, gormlogger.Info).Trace(ctx, time.Now(), sqlFunc("BEGIN", -1), nil)

		require.Equal(t, 1, logs.Len())
		assert.NotContains(t, logs.All()[0].ContextMap(), "rows")
	})

	t.Run("error", func(t *testing.T) {
		log, logs := observed()
		NewGormLogger(log, gormlogger.Error).Trace(ctx, time.Now(), sqlFunc("INSERT", 0), errors.New("constraint failed"))

		require.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		log, logs := observed()
		NewGormLogger(log, gormlogger.Error).Trace(ctx, time.Now(), sqlFunc("SELECT", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())

		NewGormLogger(log, gormlogger.Error, WithIgnoreRecordNotFoundError(false)).
			Trace(ctx, time.Now(), sqlFunc("SELECT", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-50*time.Millisecond), sqlFunc("SELECT", 1), nil)

		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "slow SQL")
	})

	t.Run("silent", func(t *testing.T) {
		log, logs := observed()
		NewGormLogger(log, gormlogger.Silent).Trace(ctx, time.Now(), sqlFunc("SELECT", 1), errors.New("x"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	log, _ := observed()
	ctx := context.Background()

	sql, params := NewGormLogger(log, gormlogger.Info).ParamsFilter(ctx, "SELECT ? ", "90010112345")
	assert.Equal(t, "SELECT ? ", sql)
	assert.Nil(t, params)

	_, params = NewGormLogger(log, gormlogger.Info, WithFullSQL(true)).ParamsFilter(ctx, "SELECT ?", "90010112345")
	assert.Equal(t, []any{"90010112345"}, params)
}

func TestGormLogger_Messages(t *testing.T) {
	log, logs := observed()
	gl := NewGormLogger(log, gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "migrated %d tables", 7)
	gl.Warn(ctx, "deprecated %s", "option")
	gl.Error(ctx, "failed: %v", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "deprecated option", logs.All()[0].Message)
	assert.Equal(t, "failed: boom", logs.All()[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
