// Package sink writes aggregated hit records into sequentially numbered
// CSV files, modeling a photon-counting camera's readout buffers.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pulsecam/internal/core"
)

// Header is the column order every output file starts with. Downstream
// ray-tracing tools read these files as flat tables keyed by name.
var Header = []string{"id", "x", "y", "z", "energy", "toa", "parent"}

// FileName is the deterministic name of batch seq for a base name.
// Pure function of its inputs: reruns and worker splits reproduce the
// same names.
func FileName(base string, seq int) string {
	return fmt.Sprintf("%s_%d.csv", base, seq)
}

// Writer buffers hit records and flushes them as size-bounded CSV
// batches. Exclusively owned by one pipeline; not safe for concurrent
// use.
type Writer struct {
	dir       string
	base      string
	batchSize int // records per file; 0 = single unbounded file

	batch     []core.HitRecord
	counter   int // records in the current batch
	seq       int // sequence number of the current file
	file      *os.File
	finalized bool

	filesWritten   int
	recordsWritten int
}

// New creates the output directory if needed and opens the first batch
// file immediately, so the base name exists on disk even for a run that
// produces no hits.
func New(dir, base string, batchSize int) (*Writer, error) {
	if base == "" {
		return nil, fmt.Errorf("%w: output base name is empty", core.ErrConfig)
	}
	if batchSize < 0 {
		return nil, fmt.Errorf("%w: batch size must not be negative, got %d", core.ErrConfig, batchSize)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating output dir %s: %v", core.ErrIO, dir, err)
		}
	}
	w := &Writer{dir: dir, base: base, batchSize: batchSize}
	if err := w.openCurrent(); err != nil {
		return nil, err
	}
	return w, nil
}

// Append adds one primary's hit group to the current batch. The batch
// flushes once it holds at least batchSize records, always at a group
// boundary, so one primary's hits never split across two files.
func (w *Writer) Append(group []core.HitRecord) error {
	if w.finalized {
		return fmt.Errorf("%w: append after finalize", core.ErrLogic)
	}
	w.batch = append(w.batch, group...)
	w.counter += len(group)
	if w.batchSize > 0 && w.counter >= w.batchSize {
		return w.flush()
	}
	return nil
}

// Finalize flushes any remaining records and closes the writer. Safe to
// call more than once; the second call is a no-op and writes nothing.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	if len(w.batch) > 0 {
		if err := w.writeBatch(); err != nil {
			return err
		}
	}
	return w.closeCurrent()
}

// Files returns how many output files exist so far.
func (w *Writer) Files() int { return w.filesWritten }

// Records returns how many records reached disk (buffered records do
// not count until their batch flushes).
func (w *Writer) Records() int { return w.recordsWritten }

// flush writes the full batch to the current file and closes it. The
// next file in sequence is created lazily by the next batch, so a run
// ending exactly on a batch boundary leaves no empty trailing file.
func (w *Writer) flush() error {
	if err := w.writeBatch(); err != nil {
		return err
	}
	if err := w.closeCurrent(); err != nil {
		return err
	}
	w.seq++
	return nil
}

// writeBatch writes every buffered record and clears the buffer. The
// csv writer's own buffering means either the whole batch lands in the
// file or the error aborts the run with prior files intact.
func (w *Writer) writeBatch() error {
	if w.file == nil {
		if err := w.openCurrent(); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w.file)
	for _, r := range w.batch {
		row := []string{
			strconv.Itoa(r.EventID),
			formatFloat(r.X),
			formatFloat(r.Y),
			formatFloat(r.Z),
			formatFloat(r.EnergyEV),
			formatFloat(r.AbsNs),
			r.Parent,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: writing %s: %v", core.ErrIO, w.currentPath(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flushing %s: %v", core.ErrIO, w.currentPath(), err)
	}
	w.recordsWritten += len(w.batch)
	w.batch = w.batch[:0]
	w.counter = 0
	return nil
}

func (w *Writer) openCurrent() error {
	path := w.currentPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", core.ErrIO, path, err)
	}
	w.file = f
	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing header to %s: %v", core.ErrIO, path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing header to %s: %v", core.ErrIO, path, err)
	}
	w.filesWritten++
	return nil
}

func (w *Writer) closeCurrent() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("%w: closing %s: %v", core.ErrIO, w.currentPath(), err)
	}
	return nil
}

func (w *Writer) currentPath() string {
	return filepath.Join(w.dir, FileName(w.base, w.seq))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
