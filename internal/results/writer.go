// Package results persists benchmark output: the batch results file, its
// side-car error log, and the per-run manifest.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	tempSuffix     = ".temp"
	errorLogSuffix = ".errors.log"
)

// Report summarizes one batch write. Written + len(Failed) == Total, and
// every index in Failed has one line in the error log.
type Report struct {
	Path         string `json:"path" yaml:"path"`
	Total        int    `json:"total" yaml:"total"`
	Written      int    `json:"written" yaml:"written"`
	Failed       []int  `json:"failed,omitempty" yaml:"failed,omitempty"`
	ErrorLogPath string `json:"errorLogPath,omitempty" yaml:"error_log_path,omitempty"`
	Recovered    bool   `json:"recovered,omitempty" yaml:"recovered,omitempty"`
}

// SerializationError records an item that could not be encoded.
type SerializationError struct {
	Index int
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("Error serializing item at index %d: %v", e.Index, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// WriteResults writes items to dest as an indented JSON array. See WriteBatch.
func WriteResults[T any](items []T, dest string) (*Report, error) {
	batch := make([]any, len(items))
	for i := range items {
		batch[i] = items[i]
	}
	return WriteBatch(batch, dest)
}

// WriteBatch streams items into dest+".temp" and renames it over dest.
//
// Items that fail to encode are skipped and logged to dest+".errors.log",
// which is only created when needed. The log describes this call alone: a
// log left by an earlier write to dest is removed first. If the temp file cannot be written or
// committed, every encodable item is written to dest in a single call and
// Report.Recovered is set. An error is returned only when that fallback
// also fails. The temp file never outlives the call.
func WriteBatch(items []any, dest string) (*Report, error) {
	w := &batchWriter{
		dest:    dest,
		tmpPath: dest + tempSuffix,
		logPath: dest + errorLogSuffix,
		report:  &Report{Path: dest, Total: len(items)},
	}
	defer w.cleanup()

	if err := os.Remove(w.logPath); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("results: remove stale error log", zap.String("path", w.logPath), zap.Error(err))
	}

	err := w.open()
	for i, item := range items {
		w.add(i, item, err == nil)
		if err == nil && w.streamErr != nil {
			err = w.streamErr
		}
	}
	if err == nil {
		err = w.commit()
	}

	if err != nil {
		zap.L().Warn("results: staging failed, writing encoded items directly",
			zap.String("path", dest),
			zap.Error(err),
		)
		if rerr := writeArray(dest, w.staged); rerr != nil {
			zap.L().Error("results: recovery write failed",
				zap.String("path", dest),
				zap.Error(rerr),
			)
			return w.report, eris.Wrapf(rerr, "results: write %s", dest)
		}
		w.report.Recovered = true
	}

	w.report.Written = len(w.staged)
	w.logSummary()
	return w.report, nil
}

// batchWriter is single-use and not safe for concurrent use.
type batchWriter struct {
	dest    string
	tmpPath string
	logPath string

	tmp       *os.File
	errLog    *os.File
	written   int
	staged    []json.RawMessage
	streamErr error

	report *Report
}

func (w *batchWriter) open() error {
	f, err := os.Create(w.tmpPath)
	if err != nil {
		return eris.Wrapf(err, "results: create %s", w.tmpPath)
	}
	w.tmp = f
	if _, err := f.WriteString("[\n"); err != nil {
		return eris.Wrapf(err, "results: write %s", w.tmpPath)
	}
	return nil
}

// add encodes one item, streaming it to the temp file when stream is true.
// Encoded items are kept so that a failed stream can still be recovered.
func (w *batchWriter) add(index int, item any, stream bool) {
	data, err := encode(item)
	if err != nil {
		w.fail(&SerializationError{Index: index, Err: err})
		return
	}
	w.staged = append(w.staged, data)

	if !stream {
		return
	}
	if w.written > 0 {
		if _, err := w.tmp.WriteString(",\n"); err != nil {
			w.streamErr = eris.Wrapf(err, "results: write %s", w.tmpPath)
			return
		}
	}
	if _, err := w.tmp.Write(data); err != nil {
		w.streamErr = eris.Wrapf(err, "results: write %s", w.tmpPath)
		return
	}
	w.written++
}

func (w *batchWriter) commit() error {
	if _, err := w.tmp.WriteString("\n]"); err != nil {
		return eris.Wrapf(err, "results: write %s", w.tmpPath)
	}
	if err := w.tmp.Sync(); err != nil {
		return eris.Wrapf(err, "results: sync %s", w.tmpPath)
	}
	err := w.tmp.Close()
	w.tmp = nil
	if err != nil {
		return eris.Wrapf(err, "results: close %s", w.tmpPath)
	}
	if err := os.Rename(w.tmpPath, w.dest); err != nil {
		return eris.Wrapf(err, "results: rename %s", w.tmpPath)
	}
	return nil
}

func (w *batchWriter) fail(serr *SerializationError) {
	w.report.Failed = append(w.report.Failed, serr.Index)
	zap.L().Warn("results: skipping unserializable item",
		zap.Int("index", serr.Index),
		zap.Error(serr.Err),
	)

	if w.errLog == nil {
		f, err := os.OpenFile(w.logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			zap.L().Error("results: open error log", zap.String("path", w.logPath), zap.Error(err))
			return
		}
		w.errLog = f
		w.report.ErrorLogPath = w.logPath
	}

	line := fmt.Sprintf("%s %s\n", time.Now().UTC().Format(time.RFC3339), serr.Error())
	if _, err := w.errLog.WriteString(line); err != nil {
		zap.L().Error("results: write error log", zap.String("path", w.logPath), zap.Error(err))
	}
}

func (w *batchWriter) cleanup() {
	if w.tmp != nil {
		w.tmp.Close() //nolint:errcheck
	}
	if w.errLog != nil {
		w.errLog.Close() //nolint:errcheck
	}
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("results: remove temp file", zap.String("path", w.tmpPath), zap.Error(err))
	}
}

func (w *batchWriter) logSummary() {
	r := w.report
	zap.L().Info("results: batch written",
		zap.String("path", r.Path),
		zap.Int("written", r.Written),
		zap.Int("total", r.Total),
		zap.Bool("recovered", r.Recovered),
	)
	if len(r.Failed) > 0 {
		zap.L().Warn("results: some items could not be serialized",
			zap.Int("failed", len(r.Failed)),
			zap.String("error_log", w.logPath),
		)
	}
}

// encode marshals v with two-space indentation. Panics raised by custom
// marshalers are returned as errors.
func encode(v any) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = eris.Errorf("panic during marshal: %v", r)
		}
	}()
	return json.MarshalIndent(v, "", "  ")
}

func writeArray(path string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
