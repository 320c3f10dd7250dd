package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSQLLoggerLevels(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"DEBUG":   gormlogger.Info,
		"info":    gormlogger.Info,
		"WARNING": gormlogger.Warn,
		"ERROR":   gormlogger.Error,
		"FATAL":   gormlogger.Silent,
	}
	for name, want := range cases {
		l := newSQLLogger(name).(*sqlLogger)
		assert.Equal(t, want, l.level, name)
	}

	quiet := newSQLLogger("DEBUG").LogMode(gormlogger.Silent).(*sqlLogger)
	assert.Equal(t, gormlogger.Silent, quiet.level)
}

func TestExpectedSQLError(t *testing.T) {
	assert.True(t, expectedSQLError(gorm.ErrRecordNotFound))
	assert.True(t, expectedSQLError(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, expectedSQLError(errors.New("connection refused")))
}
