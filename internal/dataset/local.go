// Package dataset loads benchmark inputs from a local fixtures folder.
//
// A folder holds one or more *.jsonl files next to the page images they
// reference. Each line describes one page:
//
//	{"file_name": "page-1.png", "metadata": "{...}", "json_schema": "{...}",
//	 "true_json_output": "{...}", "true_markdown_output": "# ..."}
//
// The three structured fields are usually JSON documents encoded as strings;
// inline objects are accepted as well.
package dataset

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ocr-bench/internal/model"
)

const maxLineBytes = 64 << 20

type record struct {
	FileName           string          `json:"file_name"`
	Metadata           json.RawMessage `json:"metadata"`
	JSONSchema         json.RawMessage `json:"json_schema"`
	TrueJSONOutput     json.RawMessage `json:"true_json_output"`
	TrueMarkdownOutput string          `json:"true_markdown_output"`
}

// LoadLocal reads every *.jsonl file in folder, in name order, and returns at
// most limit inputs with their images inlined as PNG data URIs. A limit of
// zero or less loads everything.
func LoadLocal(folder string, limit int) ([]model.Input, error) {
	files, err := filepath.Glob(filepath.Join(folder, "*.jsonl"))
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: list %s", folder)
	}
	if len(files) == 0 {
		if _, statErr := os.Stat(folder); statErr != nil {
			return nil, eris.Wrapf(statErr, "dataset: open %s", folder)
		}
	}
	sort.Strings(files)

	var inputs []model.Input
	for _, f := range files {
		remaining := -1
		if limit > 0 {
			remaining = limit - len(inputs)
			if remaining <= 0 {
				break
			}
		}
		batch, err := loadFile(folder, f, remaining)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, batch...)
	}

	zap.L().Info("dataset: loaded local inputs",
		zap.String("folder", folder),
		zap.Int("files", len(files)),
		zap.Int("inputs", len(inputs)),
	)
	return inputs, nil
}

func loadFile(folder, path string, want int) ([]model.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var inputs []model.Input
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if want >= 0 && len(inputs) >= want {
			break
		}
		in, err := parseRecord(folder, []byte(text))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: %s line %d", filepath.Base(path), line)
		}
		inputs = append(inputs, in)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return inputs, nil
}

func parseRecord(folder string, raw []byte) (model.Input, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Input{}, eris.Wrap(err, "parse record")
	}
	if rec.FileName == "" {
		return model.Input{}, eris.New("file_name is empty")
	}

	img, err := os.ReadFile(filepath.Join(folder, rec.FileName))
	if err != nil {
		return model.Input{}, eris.Wrapf(err, "read image %s", rec.FileName)
	}

	in := model.Input{
		ImageURL:           "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		TrueMarkdownOutput: rec.TrueMarkdownOutput,
	}
	if in.Metadata, err = decodeObject(rec.Metadata); err != nil {
		return model.Input{}, eris.Wrap(err, "metadata")
	}
	if in.JSONSchema, err = decodeObject(rec.JSONSchema); err != nil {
		return model.Input{}, eris.Wrap(err, "json_schema")
	}
	if in.TrueJSONOutput, err = decodeObject(rec.TrueJSONOutput); err != nil {
		return model.Input{}, eris.Wrap(err, "true_json_output")
	}
	return in, nil
}

// decodeObject accepts an object, a string holding an encoded object, or null.
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
