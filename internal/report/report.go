// Package report is the minimal CSV benchmark sink named in spec.md §9:
// one row per (problem, proof, run), with parsing/checking/elaboration/
// total timing columns, the Go equivalent of the original's
// CsvBenchmarkResults/RunMeasurement pair. It intentionally does not
// attempt the original's full statistical summary — aggregation beyond a
// flat CSV is out of scope (spec.md §9).
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"
)

// RunMeasurement is one benchmarked (problem, proof, run) triple's timing
// breakdown.
type RunMeasurement struct {
	ProblemFile string
	ProofFile   string
	RunIndex    int
	Parsing     time.Duration
	Checking    time.Duration
	Elaboration time.Duration
	Total       time.Duration
	Err         error
}

var header = []string{"problem", "proof", "run", "parsing_ms", "checking_ms", "elaboration_ms", "total_ms", "error"}

// Writer appends RunMeasurement rows to a CSV stream, writing the header
// once on the first call to WriteRun. WriteRun is safe to call from
// multiple goroutines at once, since benchmark jobs complete concurrently
// across jobqueue workers (spec.md §5) and all share one report sink.
type Writer struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter wraps an io.Writer (typically an *os.File) as a benchmark CSV
// sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteRun appends one row, flushing immediately so a killed benchmark run
// still leaves a usable partial report on disk.
func (bw *Writer) WriteRun(m RunMeasurement) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if !bw.wroteHeader {
		if err := bw.w.Write(header); err != nil {
			return err
		}
		bw.wroteHeader = true
	}
	errText := ""
	if m.Err != nil {
		errText = m.Err.Error()
	}
	row := []string{
		m.ProblemFile,
		m.ProofFile,
		strconv.Itoa(m.RunIndex),
		strconv.FormatInt(m.Parsing.Milliseconds(), 10),
		strconv.FormatInt(m.Checking.Milliseconds(), 10),
		strconv.FormatInt(m.Elaboration.Milliseconds(), 10),
		strconv.FormatInt(m.Total.Milliseconds(), 10),
		errText,
	}
	if err := bw.w.Write(row); err != nil {
		return err
	}
	bw.w.Flush()
	return bw.w.Error()
}
