package ingest

import (
	"bufio"
	"errors"
	"io"
	"os"

	"sensorlocator/internal/telemetry"
)

// IntermediateSuffix is appended to the input path to name the record dump.
const IntermediateSuffix = ".int"

// IntermediatePath returns the default record dump path for an input file.
func IntermediatePath(input string) string {
	return input + IntermediateSuffix
}

// IntermediateWriter writes one Record.String() line per decoded record.
type IntermediateWriter struct {
	f      *os.File
	w      *bufio.Writer
	n      int
	closed bool
}

func CreateIntermediate(path string) (*IntermediateWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &IntermediateWriter{f: f, w: bufio.NewWriterSize(f, 64*1024)}, nil
}

func (iw *IntermediateWriter) WriteRecord(rec telemetry.Record) error {
	if iw.closed {
		return errors.New("intermediate writer is closed")
	}
	if _, err := iw.w.WriteString(rec.String()); err != nil {
		return err
	}
	if err := iw.w.WriteByte('\n'); err != nil {
		return err
	}
	iw.n++
	return nil
}

func (iw *IntermediateWriter) WriteAll(records []telemetry.Record) error {
	for _, rec := range records {
		if err := iw.WriteRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

// Count is the number of records written so far.
func (iw *IntermediateWriter) Count() int { return iw.n }

func (iw *IntermediateWriter) Close() error {
	if iw.closed {
		return nil
	}
	iw.closed = true
	if err := iw.w.Flush(); err != nil {
		_ = iw.f.Close()
		return err
	}
	return iw.f.Close()
}

// WriteIntermediate dumps records to w without buffering to a file.
func WriteIntermediate(w io.Writer, records []telemetry.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := bw.WriteString(rec.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
