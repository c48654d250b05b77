package ocr

import (
	"context"

	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/internal/model"
)

// Extract runs one extraction and prices it. The text is empty whenever the
// extraction failed, and only completed extractions are billed.
func Extract(ctx context.Context, p Provider, calc *cost.Calculator, image string) (string, model.Usage, error) {
	res := p.OCR(ctx, image)
	usage := model.Usage{
		DurationMs: float64(res.Duration.Microseconds()) / 1000,
		TotalCost:  calc.Page(p.Name(), res.Succeeded()),
	}
	if !res.Succeeded() {
		return "", usage, res.Err
	}
	return res.Text, usage, nil
}
