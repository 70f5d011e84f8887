package simulation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes frames with a header row.
func WriteCSV(w io.Writer, frames []Frame) error {
	if err := gocsv.Marshal(frames, w); err != nil {
		return fmt.Errorf("writing frames: %w", err)
	}
	return nil
}

// FrameWriter appends frames to frames.csv in an output directory as a run
// progresses. A nil FrameWriter discards everything.
type FrameWriter struct {
	file          *os.File
	headerWritten bool
}

// NewFrameWriter creates dir/frames.csv. Returns nil if dir is empty.
func NewFrameWriter(dir string) (*FrameWriter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	return &FrameWriter{file: f}, nil
}

// Write appends frames, emitting the header on first use.
func (fw *FrameWriter) Write(frames []Frame) error {
	if fw == nil || len(frames) == 0 {
		return nil
	}
	if !fw.headerWritten {
		if err := gocsv.Marshal(frames, fw.file); err != nil {
			return fmt.Errorf("writing frames: %w", err)
		}
		fw.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(frames, fw.file); err != nil {
		return fmt.Errorf("writing frames: %w", err)
	}
	return nil
}

// Close closes the file.
func (fw *FrameWriter) Close() error {
	if fw == nil {
		return nil
	}
	return fw.file.Close()
}
