package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/arloliu/ftc/errs"
)

// source is a read-only view of a bitstream file.
type source struct {
	data    []byte
	mapped  bool
	release func([]byte) error
}

// Data returns the file contents.
func (s *source) Data() []byte {
	return s.data
}

// Mapped reports whether the contents are memory mapped.
func (s *source) Mapped() bool {
	return s.mapped
}

// Close releases the mapping, if any. The data must not be used afterwards.
func (s *source) Close() error {
	if s.data == nil {
		return nil
	}
	var err error
	if s.mapped && s.release != nil {
		err = s.release(s.data)
	}
	s.data = nil
	s.mapped = false

	return err
}

// openSource opens path, preferring a memory map and falling back to
// reading the whole file.
func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrOpenBitstream, path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrOpenBitstream, path, err)
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s: size %d", errs.ErrOpenBitstream, path, size64)
	}
	size := int(size64)

	if src, ok := mapFile(f, size); ok {
		return src, nil
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrOpenBitstream, path, err)
	}

	return &source{data: data}, nil
}
