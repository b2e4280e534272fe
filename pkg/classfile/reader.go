package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// reader decodes big-endian fields from an unbuffered source. It never reads
// ahead, so a failed field leaves the source exactly past the bytes consumed.
type reader struct {
	r    io.Reader
	buf  [4]byte
	read int64
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

func (r *reader) fill(n int) error {
	got, err := io.ReadFull(r.r, r.buf[:n])
	r.read += int64(got)
	return truncated(err)
}

func (r *reader) u1() (uint8, error) {
	if err := r.fill(1); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *reader) u2() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

func (r *reader) u4() (uint32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}

// bytes reads exactly n bytes. The buffer grows with the data actually
// present, so a huge declared length on a short input fails without a huge
// allocation.
func (r *reader) bytes(n uint32) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	r.read += int64(len(data))
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < n {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrTruncatedInput, n, len(data))
	}
	return data, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return err
}
