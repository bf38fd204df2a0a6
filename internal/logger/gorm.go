package logger

import (
	"context"
	"errors"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's output through the structured logger. At the
// default Warn level only failed and slow statements are written.
type GormLogger struct {
	log   *Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// Gorm returns a gorm logger at Warn level reporting statements slower than slow.
func (l *Logger) Gorm(slow time.Duration) *GormLogger {
	return &GormLogger{log: l.With("component", "gorm"), level: gormlogger.Warn, slow: slow}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.SugaredLogger.Infof(msg, args...)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.SugaredLogger.Warnf(msg, args...)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.SugaredLogger.Errorf(msg, args...)
	}
}

// Trace is called by gorm after every statement. Failures are logged at
// warn since the caller decides whether the error matters (a unique
// violation on register is routine).
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Warn("sql failed", "error", err, "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow sql", "elapsed_ms", elapsed.Milliseconds(), "threshold_ms", g.slow.Milliseconds(), "rows", rows, "sql", sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Debug("sql", "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	}
}
