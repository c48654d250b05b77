package results

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ocr-bench/internal/model"
)

// ManifestFile is the name of the run manifest inside a run folder.
const ManifestFile = "run.yaml"

// Manifest describes one benchmark run.
type Manifest struct {
	Run    model.Run `yaml:"run"`
	Output *Report   `yaml:"output,omitempty"`
}

// WriteManifest writes m to dir/run.yaml.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "results: marshal manifest")
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "results: write %s", path)
	}
	return nil
}

// ReadManifest loads dir/run.yaml.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "results: read %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "results: parse %s", path)
	}
	return &m, nil
}
