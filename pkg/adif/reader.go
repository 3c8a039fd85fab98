// Package adif reads QSO records in the Amateur Data Interchange Format.
package adif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sw33tLie/contestlog/pkg/logbook"
)

// MaxFieldLength bounds the length a data specifier may declare.
const MaxFieldLength = 1 << 20

// SyntaxError reports a malformed data specifier.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("adif: offset %d: %s", e.Offset, e.Msg)
}

// Reader yields one record per <EOR>. Anything before <EOH> is the header and
// is discarded; a file without a header is read from the start.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read returns the next record, or io.EOF when there are no more. Fields left
// after the last <EOR> are dropped.
func (r *Reader) Read() (logbook.Fields, error) {
	rec := logbook.Fields{}
	for {
		if err := r.skipTo('<'); err != nil {
			return nil, err
		}
		start := r.offset
		spec, err := r.readUntil('>')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &SyntaxError{Offset: start, Msg: "unterminated tag"}
			}
			return nil, err
		}

		parts := strings.Split(spec, ":")
		name := strings.ToUpper(strings.TrimSpace(parts[0]))
		switch name {
		case "EOH":
			rec = logbook.Fields{}
			continue
		case "EOR":
			return rec, nil
		case "":
			return nil, &SyntaxError{Offset: start, Msg: "empty field name"}
		}
		if len(parts) < 2 {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("field %s has no length", name)}
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || n < 0 {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("field %s has bad length %q", name, parts[1])}
		}
		if n > MaxFieldLength {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("field %s length %d exceeds %d", name, n, MaxFieldLength)}
		}
		value := make([]byte, n)
		read, err := io.ReadFull(r.r, value)
		r.offset += int64(read)
		if err != nil {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("field %s truncated", name)}
		}
		rec.SetItem(name, string(value))
	}
}

func (r *Reader) skipTo(delim byte) error {
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return err
		}
		r.offset++
		if b == delim {
			return nil
		}
	}
}

func (r *Reader) readUntil(delim byte) (string, error) {
	s, err := r.r.ReadString(delim)
	r.offset += int64(len(s))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(s, string(delim)), nil
}

// ReadAll reads every record from r.
func ReadAll(r io.Reader) ([]logbook.Fields, error) {
	ar := NewReader(r)
	var out []logbook.Fields
	for {
		rec, err := ar.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
