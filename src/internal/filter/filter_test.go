// FILE: src/internal/filter/filter_test.go
package filter

import (
	"testing"

	"arrowship/src/internal/config"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNewFilter(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeInclude,
			Patterns: []string{"^App", "Audit$"},
		}, logger)
		assert.NoError(t, err)
		assert.NotNil(t, f)
		assert.Len(t, f.patterns, 2)
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"x"}}, logger)
		assert.NoError(t, err)
		assert.Equal(t, config.FilterTypeInclude, f.config.Type)
		assert.Equal(t, config.FilterLogicOr, f.config.Logic)
	})

	t.Run("ErrorInvalidRegex", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"["}}, logger)
		assert.Error(t, err)
		assert.Nil(t, f)
		assert.Contains(t, err.Error(), "pattern[0]")
	})
}

func TestFilter_Apply(t *testing.T) {
	logger := newTestLogger()

	t.Run("NoPatternsPassesEverything", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Type: config.FilterTypeInclude}, logger)
		assert.NoError(t, err)
		assert.True(t, f.Apply("AppLog"))
		assert.True(t, f.Apply(""))
	})

	t.Run("IncludeOr", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeInclude,
			Logic:    config.FilterLogicOr,
			Patterns: []string{"^App", "^Sys"},
		}, logger)
		assert.NoError(t, err)
		assert.True(t, f.Apply("AppLog"))
		assert.True(t, f.Apply("SysEvent"))
		assert.False(t, f.Apply("DebugTrace"))
	})

	t.Run("IncludeAnd", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeInclude,
			Logic:    config.FilterLogicAnd,
			Patterns: []string{"^App", "Audit"},
		}, logger)
		assert.NoError(t, err)
		assert.True(t, f.Apply("AppAudit"))
		assert.False(t, f.Apply("AppLog"))
		assert.False(t, f.Apply("Audit"))
	})

	t.Run("Exclude", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeExclude,
			Patterns: []string{"Debug"},
		}, logger)
		assert.NoError(t, err)
		assert.True(t, f.Apply("AppLog"))
		assert.False(t, f.Apply("DebugTrace"))
	})

	t.Run("StatsTracked", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeInclude,
			Patterns: []string{"^App"},
		}, logger)
		assert.NoError(t, err)

		f.Apply("AppLog")
		f.Apply("Other")

		stats := f.GetStats()
		assert.Equal(t, uint64(2), stats["total_processed"])
		assert.Equal(t, uint64(1), stats["total_matched"])
		assert.Equal(t, uint64(1), stats["total_dropped"])
	})
}
