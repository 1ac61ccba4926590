// Package envelope implements the OT7 Base64 Surface (spec.md §6's
// `-base64` mode): wrapping a finished binary record in RFC 4648 standard
// base64, line-wrapped the way armored text formats are, and unwrapping it
// back to the exact binary record bytes. Grounded on the teacher's own
// base64.StdEncoding usage in internal/filetransfer and internal/rpc.
package envelope

import (
	"bufio"
	"encoding/base64"
	"io"

	"github.com/otseven/OT7-sub000/internal/resultcode"
)

// LineWidth is the number of base64 characters per output line before a
// line terminator is inserted (spec.md §8 S6: "output file contains only
// the base64 alphabet plus line terminators").
const LineWidth = 64

// Encode reads raw binary record bytes from src and writes their
// line-wrapped base64 form to dst.
func Encode(dst io.Writer, src io.Reader) error {
	w := &lineWrapper{w: bufio.NewWriter(dst), width: LineWidth}
	enc := base64.NewEncoder(base64.StdEncoding, w)

	if _, err := io.Copy(enc, src); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "base64-encoding record: %v", err)
	}
	if err := enc.Close(); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "closing base64 encoder: %v", err)
	}
	if err := w.finish(); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "flushing base64 output: %v", err)
	}
	return nil
}

// Decode reads line-wrapped (or unwrapped) base64 text from src and writes
// the decoded binary record bytes to dst.
func Decode(dst io.Writer, src io.Reader) error {
	dec := base64.NewDecoder(base64.StdEncoding, &lineStripper{r: bufio.NewReader(src)})
	if _, err := io.Copy(dst, dec); err != nil {
		return resultcode.Wrapf(resultcode.InvalidEncryptedFileFormat, "base64-decoding record: %v", err)
	}
	return nil
}

// lineWrapper inserts a newline every width bytes written to it.
type lineWrapper struct {
	w     *bufio.Writer
	width int
	col   int
}

func (l *lineWrapper) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		room := l.width - l.col
		n := room
		if n > len(p) {
			n = len(p)
		}
		if _, err := l.w.Write(p[:n]); err != nil {
			return written, err
		}
		written += n
		l.col += n
		p = p[n:]
		if l.col == l.width {
			if err := l.w.WriteByte('\n'); err != nil {
				return written, err
			}
			l.col = 0
		}
	}
	return written, nil
}

func (l *lineWrapper) finish() error {
	if l.col > 0 {
		if err := l.w.WriteByte('\n'); err != nil {
			return err
		}
		l.col = 0
	}
	return l.w.Flush()
}

// lineStripper filters CR/LF bytes out of the underlying reader's stream,
// so base64.NewDecoder never sees a line terminator.
type lineStripper struct {
	r *bufio.Reader
}

func (l *lineStripper) Read(p []byte) (int, error) {
	for {
		n, err := l.r.Read(p)
		if n == 0 {
			return 0, err
		}
		out := p[:0]
		for _, b := range p[:n] {
			if b != '\n' && b != '\r' {
				out = append(out, b)
			}
		}
		if len(out) > 0 {
			return len(out), err
		}
		if err != nil {
			return 0, err
		}
	}
}
