package cost

// Provider names with known pricing.
const (
	ProviderChunkr  = "chunkr"
	ProviderMistral = "mistral"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Chunkr  PageRate `yaml:"chunkr" mapstructure:"chunkr"`
	Mistral PageRate `yaml:"mistral" mapstructure:"mistral"`
}

// PageRate is a flat USD price per processed page.
type PageRate struct {
	PerPage float64 `yaml:"per_page" mapstructure:"per_page"`
}

// Calculator computes costs for OCR usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// PerPage returns the configured page rate for provider, or 0 if unknown.
func (c *Calculator) PerPage(provider string) float64 {
	switch provider {
	case ProviderChunkr:
		return c.rates.Chunkr.PerPage
	case ProviderMistral:
		return c.rates.Mistral.PerPage
	default:
		return 0
	}
}

// Page returns the cost of one page. Providers only bill completed work, so
// a failed extraction costs nothing.
func (c *Calculator) Page(provider string, succeeded bool) float64 {
	if !succeeded {
		return 0
	}
	return c.PerPage(provider)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		// https://www.chunkr.ai/#pricing
		Chunkr:  PageRate{PerPage: 0.005},
		Mistral: PageRate{PerPage: 0.001},
	}
}
