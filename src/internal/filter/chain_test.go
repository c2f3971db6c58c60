// FILE: src/internal/filter/chain_test.go
package filter

import (
	"testing"

	"arrowship/src/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewChain(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		configs := []config.FilterConfig{
			{Type: config.FilterTypeInclude, Patterns: []string{"^App"}},
			{Type: config.FilterTypeExclude, Patterns: []string{"Noise"}},
		}
		chain, err := NewChain(configs, logger)
		assert.NoError(t, err)
		assert.NotNil(t, chain)
		assert.Len(t, chain.filters, 2)
	})

	t.Run("ErrorInvalidRegexInChain", func(t *testing.T) {
		configs := []config.FilterConfig{
			{Patterns: []string{"^App"}},
			{Patterns: []string{"["}},
		}
		chain, err := NewChain(configs, logger)
		assert.Error(t, err)
		assert.Nil(t, chain)
		assert.Contains(t, err.Error(), "filter[1]")
	})
}

func TestChain_Apply(t *testing.T) {
	logger := newTestLogger()

	t.Run("EmptyChain", func(t *testing.T) {
		chain, err := NewChain([]config.FilterConfig{}, logger)
		assert.NoError(t, err)
		assert.True(t, chain.Apply("AppLog"))
	})

	t.Run("AllFiltersPass", func(t *testing.T) {
		configs := []config.FilterConfig{
			{Type: config.FilterTypeInclude, Patterns: []string{"^App"}},
			{Type: config.FilterTypeInclude, Patterns: []string{"Log$"}},
			{Type: config.FilterTypeExclude, Patterns: []string{"Noise"}},
		}
		chain, err := NewChain(configs, logger)
		assert.NoError(t, err)
		assert.True(t, chain.Apply("AppLog"))
	})

	t.Run("OneFilterFails", func(t *testing.T) {
		configs := []config.FilterConfig{
			{Type: config.FilterTypeInclude, Patterns: []string{"^App"}},
			{Type: config.FilterTypeExclude, Patterns: []string{"Log$"}}, // This one will fail
		}
		chain, err := NewChain(configs, logger)
		assert.NoError(t, err)
		assert.False(t, chain.Apply("AppLog"))
	})

	t.Run("StatsTracked", func(t *testing.T) {
		configs := []config.FilterConfig{
			{Type: config.FilterTypeInclude, Patterns: []string{"^App"}},
		}
		chain, err := NewChain(configs, logger)
		assert.NoError(t, err)

		chain.Apply("AppLog")
		chain.Apply("SysEvent")

		stats := chain.GetStats()
		assert.Equal(t, uint64(2), stats["total_processed"])
		assert.Equal(t, uint64(1), stats["total_passed"])
	})
}
