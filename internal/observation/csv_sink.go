package observation

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVSink writes every record as a flat CSV row, grounded on the
// teacher's sweep.CSVWriter (internal/lidar/sweep/output.go): a
// csv.Writer over an io.Writer, header written once up front, one row
// per record, buffered until Flush.
type CSVSink struct {
	w       *csv.Writer
	closer  io.Closer
	wrote   bool
}

// NewCSVSink wraps dst in a CSVSink. If dst also implements io.Closer,
// Close on the sink closes dst too.
func NewCSVSink(dst io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(dst)}
	if c, ok := dst.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *CSVSink) writeHeader() error {
	return s.w.Write([]string{"run_id", "time_ms", "agent_id", "group", "key", "value"})
}

// Record writes one row, emitting the header first if this is the first
// call.
func (s *CSVSink) Record(r Record) error {
	if !s.wrote {
		if err := s.writeHeader(); err != nil {
			return fmt.Errorf("csv sink: write header: %w", err)
		}
		s.wrote = true
	}
	row := []string{
		r.RunID,
		fmt.Sprintf("%d", r.TimeMS),
		fmt.Sprintf("%d", r.AgentID),
		string(r.Group),
		r.Key,
		fmt.Sprintf("%g", r.Value),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("csv sink: write row: %w", err)
	}
	return nil
}

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
