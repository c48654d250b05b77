package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Chunkr:  PageRate{PerPage: 0.005},
		Mistral: PageRate{PerPage: 0.002},
	}
}

func TestPage(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name      string
		provider  string
		succeeded bool
		want      float64
	}{
		{name: "chunkr success", provider: ProviderChunkr, succeeded: true, want: 0.005},
		{name: "chunkr failure is free", provider: ProviderChunkr, succeeded: false, want: 0},
		{name: "mistral success", provider: ProviderMistral, succeeded: true, want: 0.002},
		{name: "mistral failure is free", provider: ProviderMistral, succeeded: false, want: 0},
		{name: "unknown provider", provider: "tesseract", succeeded: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Page(tt.provider, tt.succeeded), 1e-9)
		})
	}
}

func TestPage_OnlyTwoValues(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	for _, ok := range []bool{true, false} {
		got := calc.Page(ProviderChunkr, ok)
		assert.Contains(t, []float64{0, calc.PerPage(ProviderChunkr)}, got)
		assert.Equal(t, ok, got > 0)
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.InDelta(t, 0.005, r.Chunkr.PerPage, 1e-9)
	assert.InDelta(t, 0.001, r.Mistral.PerPage, 1e-9)
}
