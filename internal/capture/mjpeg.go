package capture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// JPEG stream markers.
var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// FrameWriter appends JPEG frames to an MJPEG stream file. The container
// is nothing more than concatenated JPEG images, which keeps the artifact
// readable without a media toolchain.
type FrameWriter struct {
	f *os.File
	w *bufio.Writer
	n int
}

// NewFrameWriter creates (or truncates) the stream file at path.
func NewFrameWriter(path string) (*FrameWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create video file: %w", err)
	}
	return &FrameWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteFrame appends one JPEG frame. Frames missing the JPEG start marker
// are rejected rather than silently corrupting the stream.
func (fw *FrameWriter) WriteFrame(frame []byte) error {
	if len(frame) < 4 || !bytes.HasPrefix(frame, jpegSOI) {
		return fmt.Errorf("frame is not a JPEG image")
	}
	if _, err := fw.w.Write(frame); err != nil {
		return err
	}
	fw.n++
	return nil
}

// Frames reports how many frames have been written.
func (fw *FrameWriter) Frames() int { return fw.n }

// Close flushes and releases the file.
func (fw *FrameWriter) Close() error {
	if err := fw.w.Flush(); err != nil {
		fw.f.Close()
		return err
	}
	return fw.f.Close()
}

// FrameScanner iterates the JPEG frames of an MJPEG stream file.
type FrameScanner struct {
	data []byte
	off  int
}

// OpenFrames reads the stream file and positions the scanner at the first
// frame.
func OpenFrames(path string) (*FrameScanner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read video file: %w", err)
	}
	return &FrameScanner{data: data}, nil
}

// Next returns the next frame's bytes, or io.EOF when the stream is
// exhausted.
func (fs *FrameScanner) Next() ([]byte, error) {
	start := bytes.Index(fs.data[fs.off:], jpegSOI)
	if start < 0 {
		return nil, io.EOF
	}
	start += fs.off

	end := bytes.Index(fs.data[start+2:], jpegEOI)
	if end < 0 {
		return nil, io.EOF
	}
	end += start + 2 + len(jpegEOI)

	fs.off = end
	return fs.data[start:end], nil
}
