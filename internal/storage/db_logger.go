package storage

import (
	"context"
	"errors"
	"time"

	applog "tg-filedrop/internal/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

const slowQueryThreshold = 200 * time.Millisecond

// sqlLogger sends gorm output to the application log. Missing rows and
// duplicate keys are expected outcomes of session lookups and id retries, so
// their statements are not reported as errors.
type sqlLogger struct {
	level gormlogger.LogLevel
	slow  time.Duration
}

// newSQLLogger maps database.log_level onto gorm's levels. Statements are
// traced at DEBUG only, slow queries at WARNING.
func newSQLLogger(level string) gormlogger.Interface {
	l := &sqlLogger{slow: slowQueryThreshold}
	switch applog.ParseLevel(level) {
	case applog.LevelDebug, applog.LevelInfo:
		l.level = gormlogger.Info
	case applog.LevelWarning:
		l.level = gormlogger.Warn
	case applog.LevelError:
		l.level = gormlogger.Error
	default:
		l.level = gormlogger.Silent
	}
	return l
}

func (l *sqlLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *sqlLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		applog.Infof("gorm: "+msg, data...)
	}
}

func (l *sqlLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		applog.Warningf("gorm: "+msg, data...)
	}
}

func (l *sqlLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		applog.Errorf("gorm: "+msg, data...)
	}
}

func (l *sqlLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	ms := float64(elapsed.Microseconds()) / 1000

	switch {
	case err != nil && l.level >= gormlogger.Error && !expectedSQLError(err):
		sql, _ := fc()
		applog.Errorf("sql failed after %.3fms at %s: %s; error=%v", ms, utils.FileWithLineNum(), sql, err)
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		applog.Warningf("slow sql (%.3fms, rows=%d) at %s: %s", ms, rows, utils.FileWithLineNum(), sql)
	case l.level == gormlogger.Info:
		sql, rows := fc()
		applog.Debugf("sql %.3fms rows=%d: %s", ms, rows, sql)
	}
}

func expectedSQLError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
}
