package chunkr

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Mode selects which rendered field of each segment Flatten reads.
type Mode string

const (
	ModeMarkdown Mode = "markdown"
	ModeHTML     Mode = "html"
)

// ParseMode validates a configured mode. Empty means markdown.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeMarkdown:
		return ModeMarkdown, nil
	case ModeHTML:
		return ModeHTML, nil
	default:
		return "", eris.Errorf("chunkr: unknown flatten mode %q", s)
	}
}

// Flatten concatenates the rendered segments of each chunk and joins the
// non-empty chunks with a blank line.
func Flatten(task *Task, mode Mode) (string, error) {
	if task == nil || task.Output == nil {
		return "", ErrInvalidPayload
	}
	if len(task.Output.Chunks) == 0 {
		return "", ErrNoChunks
	}

	parts := make([]string, 0, len(task.Output.Chunks))
	for _, chunk := range task.Output.Chunks {
		var sb strings.Builder
		for _, seg := range chunk.Segments {
			sb.WriteString(seg.render(mode))
		}
		if sb.Len() > 0 {
			parts = append(parts, sb.String())
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s Segment) render(mode Mode) string {
	if mode == ModeHTML {
		return s.HTML
	}
	return s.Markdown
}
