package model

// Input is one document to benchmark: the image plus its ground truth.
type Input struct {
	// ImageURL is a remote URL, a data URI ("data:image/png;base64,...")
	// or raw base64.
	ImageURL           string         `json:"imageUrl"`
	Metadata           map[string]any `json:"metadata"`
	JSONSchema         map[string]any `json:"jsonSchema"`
	TrueJSONOutput     map[string]any `json:"trueJsonOutput"`
	TrueMarkdownOutput string         `json:"trueMarkdownOutput"`
}
