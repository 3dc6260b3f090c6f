package serial

import (
	"bytes"
	"strings"
)

// maxLineLength bounds a line that never sees a newline so a noisy device
// cannot grow the buffer without limit.
const maxLineLength = 4096

// lineBuffer assembles newline-terminated lines from arbitrary read chunks.
type lineBuffer struct {
	buf []byte
}

// Feed appends chunk and returns the completed, decoded, trimmed, non-empty
// lines it contained. Invalid UTF-8 is replaced with U+FFFD.
func (b *lineBuffer) Feed(chunk []byte) []string {
	b.buf = append(b.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		if line := decodeLine(b.buf[:i]); line != "" {
			lines = append(lines, line)
		}
		b.buf = b.buf[i+1:]
	}

	if len(b.buf) > maxLineLength {
		if line := decodeLine(b.buf); line != "" {
			lines = append(lines, line)
		}
		b.buf = nil
	}
	return lines
}

func decodeLine(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), "\uFFFD"))
}
