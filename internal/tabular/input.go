package tabular

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countingReader tracks bytes read and fails once more than limit bytes
// have been read. A limit <= 0 disables the check.
type countingReader struct {
	reader    io.Reader
	limit     int64
	BytesRead int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.limit > 0 && r.BytesRead > r.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.limit)
	}
	return n, err
}

// readAll loads r into memory, enforcing maxSize.
func readAll(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(&countingReader{reader: r, limit: maxSize})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return data, nil
}

// skipBOM returns r positioned after a leading UTF-8 byte order mark, if any.
// Windows tools commonly prepend one to CSV exports.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}
