package batch

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
)

// RowWriter receives rows in discovery order.
type RowWriter interface {
	WriteRow(Row) error
	Close() error
}

// syncer fsyncs the destination after every row when it is a regular file.
type syncer struct {
	f *os.File
}

func newSyncer(w io.Writer) syncer {
	f, ok := w.(*os.File)
	if !ok {
		return syncer{}
	}
	if st, err := f.Stat(); err != nil || !st.Mode().IsRegular() {
		return syncer{}
	}
	return syncer{f: f}
}

func (s syncer) sync() error {
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

// CSVWriter writes rows as CSV with a [Columns] header.
type CSVWriter struct {
	w      *csv.Writer
	sync   syncer
	header bool
}

// NewCSVWriter creates a CSV writer on w. Close does not close w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), sync: newSyncer(w)}
}

// WriteRow writes one record, preceded by the header on the first call.
func (c *CSVWriter) WriteRow(r Row) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	if err := c.w.Write(r.Record()); err != nil {
		return err
	}
	return c.flush()
}

// Close writes the header if no row was written, so an empty batch still
// produces a valid file.
func (c *CSVWriter) Close() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	return c.flush()
}

func (c *CSVWriter) writeHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	return c.w.Write(Columns)
}

func (c *CSVWriter) flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.sync.sync()
}

// JSONLWriter writes one JSON object per row.
type JSONLWriter struct {
	enc  *json.Encoder
	sync syncer
}

// NewJSONLWriter creates a JSON Lines writer on w. Close does not close w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{enc: json.NewEncoder(w), sync: newSyncer(w)}
}

// WriteRow encodes r on its own line.
func (j *JSONLWriter) WriteRow(r Row) error {
	if err := j.enc.Encode(r); err != nil {
		return err
	}
	return j.sync.sync()
}

// Close implements [RowWriter].
func (j *JSONLWriter) Close() error { return nil }

// MultiWriter fans rows out to several writers.
type MultiWriter []RowWriter

// WriteRow writes to every writer, stopping at the first error.
func (m MultiWriter) WriteRow(r Row) error {
	for _, w := range m {
		if err := w.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and returns the first error.
func (m MultiWriter) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
