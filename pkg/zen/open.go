package zen

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// MappedBuffer is a Buffer backed by the bytes of an archive file, mapped
// read-only where the platform allows it. It must be closed to release any
// mapping; views derived from it must not be retained after Close.
type MappedBuffer struct {
	*Buffer
	raw     []byte
	mmapped bool
}

// Open loads an archive file into a MappedBuffer. It prefers mmap for
// zero-copy views and falls back to ReadAt-based loading when mmap is
// unavailable.
func Open(path string) (*MappedBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, ErrMalformed
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &MappedBuffer{Buffer: NewBuffer(data), raw: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &MappedBuffer{Buffer: NewBuffer(data), raw: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases the file mapping, if any.
func (m *MappedBuffer) Close() error {
	if m == nil || m.raw == nil {
		return nil
	}
	var err error
	if m.mmapped {
		err = unix.Munmap(m.raw)
	}
	m.raw = nil
	m.Buffer = nil
	m.mmapped = false
	return err
}
