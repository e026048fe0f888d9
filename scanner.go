package fix

import (
	"bufio"
	"bytes"
	"io"
	"math"
)

// DefaultMaxMessageSize bounds one framed message when no size is given.
const DefaultMaxMessageSize = 1 << 20

// FrameLength returns the total length of the message at the start of data,
// from "8=" through the CheckSum delimiter, using only BeginString and
// BodyLength. It fails with ErrNoMoreData when data ends inside the header.
func FrameLength(data []byte, delim byte) (int, error) {
	d := decoder{data: data, delim: delim}
	tag, _, err := d.token(len(data), CodeNoMoreData)
	if err != nil {
		return 0, err
	}
	if tag != TagBeginString {
		return 0, newError(CodeWrongField, "first field must be BeginString(8), got %d", tag)
	}
	tag, val, err := d.token(len(data), CodeNoMoreData)
	if err != nil {
		return 0, err
	}
	if tag != TagBodyLength {
		return 0, newError(CodeWrongField, "second field must be BodyLength(9), got %d", tag)
	}
	n, err := DecodeInt(val)
	if err != nil || n < 0 {
		return 0, newError(CodeParseMsg, "invalid BodyLength '%s'", val)
	}
	trailer := len(checksumPrefix) + checksumLen + 1
	if n > int64(math.MaxInt-d.pos-trailer) {
		return 0, newError(CodeTooBigPage, "BodyLength %d is too large", n)
	}
	return d.pos + int(n) + trailer, nil
}

// isSpace reports the separators tolerated between messages.
func isSpace(c byte) bool {
	return c == '\n' || c == '\r' || c == ' ' || c == '\t'
}

// nextBeginString returns the offset of the first "8=" at or after from that
// starts a field, or -1.
func nextBeginString(data []byte, from int, delim byte) int {
	for from < len(data) {
		i := bytes.Index(data[from:], []byte("8="))
		if i < 0 {
			return -1
		}
		i += from
		if c := data[i-1]; c == delim || isSpace(c) {
			return i
		}
		from = i + 1
	}
	return -1
}

// ScanMessages returns a bufio.SplitFunc yielding one FIX message per token.
// Line breaks and blanks between messages are skipped. Bytes that do not start
// with a BeginString and BodyLength header are returned as one token running
// up to the next BeginString, so the parser rejects them and scanning resumes.
// Messages longer than maxSize and a truncated message at the end fail the
// scan.
func ScanMessages(delim byte, maxSize int) bufio.SplitFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	return func(data []byte, atEOF bool) (int, []byte, error) {
		skip := 0
		for skip < len(data) && isSpace(data[skip]) && data[skip] != delim {
			skip++
		}
		if skip == len(data) {
			return skip, nil, nil
		}

		n, err := FrameLength(data[skip:], delim)
		switch {
		case err != nil && CodeOf(err) == CodeNoMoreData:
			if atEOF {
				return 0, nil, newError(CodeNoMoreData, "truncated message at end of input")
			}
			if len(data)-skip > maxSize {
				return 0, nil, newError(CodeTooBigPage, "message header exceeds %d bytes", maxSize)
			}
			return skip, nil, nil
		case err != nil && CodeOf(err) == CodeTooBigPage:
			return 0, nil, err
		case err != nil:
			// Hand the garbage up to the next BeginString over as a token
			// so the parse fails for it alone.
			next := nextBeginString(data, skip+1, delim)
			switch {
			case next >= 0:
				return next, data[skip:next], nil
			case atEOF:
				return len(data), data[skip:], nil
			case len(data)-skip > maxSize:
				return 0, nil, newError(CodeTooBigPage, "no message start within %d bytes", maxSize)
			}
			return skip, nil, nil
		case n > maxSize:
			return 0, nil, newError(CodeTooBigPage, "message of %d bytes exceeds %d", n, maxSize)
		}

		if skip+n > len(data) {
			if atEOF {
				return 0, nil, newError(CodeNoMoreData, "truncated message at end of input")
			}
			return skip, nil, nil
		}
		return skip + n, data[skip : skip+n], nil
	}
}

// NewScanner returns a scanner reading FIX messages separated by delim from
// r.
func NewScanner(r io.Reader, delim byte, maxSize int) *bufio.Scanner {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(maxSize, 64*1024)), maxSize+1)
	s.Split(ScanMessages(delim, maxSize))
	return s
}
