package zen

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ObjectHeader describes the next nested object in the archive. It is
// produced fresh by each ReadObjectBegin and is only valid until the next
// frame operation.
type ObjectHeader struct {
	Name      string
	ClassName string
	Version   int
	Index     int
}

// FrameState is the result of ReadObjectEnd.
type FrameState int

const (
	// MoreContent means entries, raw bytes or child objects remain to be
	// read before the open frame can close.
	MoreContent FrameState = iota
	// FrameExhausted means the frame's closing marker was consumed and the
	// cursor now sits on the next sibling (or the parent's remainder).
	FrameExhausted
)

// Header carries the archive preamble fields.
type Header struct {
	Version  int
	Archiver string
	Format   string
	SaveGame bool
	Date     string
	User     string
	Objects  int
}

// Reader drives the nested object protocol of an ASCII ZenGin archive. It is
// a thin state machine over a Buffer: object begin/end markers and typed
// entries are lines, while raw binary payloads are read directly from the
// underlying buffer between line reads.
type Reader struct {
	buf     *Buffer
	hdr     Header
	depth   int
	objects map[int]any
}

// OpenReader parses the archive preamble and returns a Reader positioned on
// the root object.
func OpenReader(buf *Buffer) (*Reader, error) {
	r := &Reader{buf: buf, objects: make(map[int]any)}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	line, err := r.buf.ReadLine()
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != MagicZen {
		return fmt.Errorf("%w: got %q", ErrInvalidMagic, line)
	}

preamble:
	for {
		line, err = r.buf.ReadLine()
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "END":
			break preamble
		case strings.HasPrefix(line, "ver "):
			r.hdr.Version, _ = strconv.Atoi(strings.TrimPrefix(line, "ver "))
		case strings.HasPrefix(line, "saveGame "):
			r.hdr.SaveGame = strings.TrimPrefix(line, "saveGame ") != "0"
		case strings.HasPrefix(line, "date "):
			r.hdr.Date = strings.TrimPrefix(line, "date ")
		case strings.HasPrefix(line, "user "):
			r.hdr.User = strings.TrimPrefix(line, "user ")
		case line == FormatASCII || line == FormatBinary || line == FormatBinSafe:
			r.hdr.Format = line
		case line != "":
			r.hdr.Archiver = line
		}
	}

	if r.hdr.Format != FormatASCII {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, r.hdr.Format)
	}

	// Optional object-count block, then a blank separator line.
	pos := r.buf.Position()
	line, err = r.buf.ReadLine()
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "objects ") {
		r.hdr.Objects, _ = strconv.Atoi(strings.TrimPrefix(line, "objects "))
		line, err = r.buf.ReadLine()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "END" {
			return fmt.Errorf("%w: missing END after object count", ErrMalformed)
		}
		pos = r.buf.Position()
		line, err = r.buf.ReadLine()
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
	}
	if line != "" {
		// Not a blank separator; leave it for the object layer.
		if err := r.buf.Seek(pos); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the parsed archive preamble.
func (r *Reader) Header() Header {
	return r.hdr
}

// Buf exposes the underlying buffer for raw binary payloads spliced between
// objects, such as the world's mesh section.
func (r *Reader) Buf() *Buffer {
	return r.buf
}

// Depth returns the current object nesting depth.
func (r *Reader) Depth() int {
	return r.depth
}

// ReadObjectBegin opens the next object frame and returns its header.
func (r *Reader) ReadObjectBegin() (ObjectHeader, error) {
	line, err := r.buf.ReadLine()
	if err != nil {
		return ObjectHeader{}, err
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") || line == "[]" {
		return ObjectHeader{}, fmt.Errorf("%w: expected object begin, got %q", ErrMalformed, line)
	}

	fields := strings.Fields(line[1 : len(line)-1])
	if len(fields) != 4 {
		return ObjectHeader{}, fmt.Errorf("%w: bad object header %q", ErrMalformed, line)
	}
	version, err := strconv.Atoi(fields[2])
	if err != nil {
		return ObjectHeader{}, fmt.Errorf("%w: bad object version in %q", ErrMalformed, line)
	}
	index, err := strconv.Atoi(fields[3])
	if err != nil {
		return ObjectHeader{}, fmt.Errorf("%w: bad object index in %q", ErrMalformed, line)
	}

	r.depth++
	return ObjectHeader{
		Name:      fields[0],
		ClassName: fields[1],
		Version:   version,
		Index:     index,
	}, nil
}

// ReadObjectEnd reports whether the open frame is done. A closing marker is
// consumed and yields FrameExhausted; anything else rewinds the cursor and
// yields MoreContent, leaving the content in place for the caller.
func (r *Reader) ReadObjectEnd() (FrameState, error) {
	if r.depth == 0 {
		return MoreContent, fmt.Errorf("%w: object end with no open object", ErrMalformed)
	}
	pos := r.buf.Position()
	line, err := r.buf.ReadLine()
	if err != nil {
		return MoreContent, err
	}
	if strings.TrimSpace(line) == "[]" {
		r.depth--
		return FrameExhausted, nil
	}
	if err := r.buf.Seek(pos); err != nil {
		return MoreContent, err
	}
	return MoreContent, nil
}

// SkipObject discards the remainder of the currently open frame, including
// nested children when recursive is set. Encountering a child object while
// recursive is false is an error.
func (r *Reader) SkipObject(recursive bool) error {
	level := 1
	for level > 0 {
		line, err := r.buf.ReadLine()
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "[]":
			level--
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			if !recursive {
				return fmt.Errorf("%w: nested object during non-recursive skip", ErrMalformed)
			}
			level++
		}
	}
	r.depth--
	return nil
}

// Register records a parsed object under its archive index so later
// back-references can resolve it.
func (r *Reader) Register(index int, obj any) {
	r.objects[index] = obj
}

// Lookup resolves a previously registered object by archive index.
func (r *Reader) Lookup(index int) (any, bool) {
	obj, ok := r.objects[index]
	return obj, ok
}

func (r *Reader) readEntry(kind string) (string, string, error) {
	line, err := r.buf.ReadLine()
	if err != nil {
		return "", "", err
	}
	line = strings.TrimSpace(line)
	name, rest, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: expected %s entry, got %q", ErrMalformed, kind, line)
	}
	typ, value, ok := strings.Cut(rest, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: entry %q has no type tag", ErrMalformed, name)
	}
	if typ != kind {
		return "", "", fmt.Errorf("%w: entry %q is %s, expected %s", ErrMalformed, name, typ, kind)
	}
	return name, value, nil
}

// ReadString reads the next string entry.
func (r *Reader) ReadString() (string, error) {
	_, v, err := r.readEntry("string")
	return v, err
}

// ReadInt reads the next int entry.
func (r *Reader) ReadInt() (int32, error) {
	_, v, err := r.readEntry("int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad int value %q", ErrMalformed, v)
	}
	return int32(n), nil
}

// ReadFloat reads the next float entry.
func (r *Reader) ReadFloat() (float32, error) {
	_, v, err := r.readEntry("float")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad float value %q", ErrMalformed, v)
	}
	return float32(f), nil
}

// ReadByte reads the next byte entry.
func (r *Reader) ReadByte() (byte, error) {
	_, v, err := r.readEntry("byte")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: bad byte value %q", ErrMalformed, v)
	}
	return uint8(n), nil
}

// ReadWord reads the next word entry.
func (r *Reader) ReadWord() (uint16, error) {
	_, v, err := r.readEntry("word")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad word value %q", ErrMalformed, v)
	}
	return uint16(n), nil
}

// ReadBool reads the next bool entry.
func (r *Reader) ReadBool() (bool, error) {
	_, v, err := r.readEntry("bool")
	if err != nil {
		return false, err
	}
	return v != "0", nil
}

// ReadEnum reads the next enum entry.
func (r *Reader) ReadEnum() (uint32, error) {
	_, v, err := r.readEntry("enum")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad enum value %q", ErrMalformed, v)
	}
	return uint32(n), nil
}

// ReadVec3 reads the next rawFloat entry as a 3-component vector.
func (r *Reader) ReadVec3() (Vec3, error) {
	fs, err := r.ReadFloats(3)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: fs[0], Y: fs[1], Z: fs[2]}, nil
}

// ReadFloats reads the next rawFloat entry, which must hold exactly n floats.
func (r *Reader) ReadFloats(n int) ([]float32, error) {
	name, v, err := r.readEntry("rawFloat")
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(v)
	if len(parts) != n {
		return nil, fmt.Errorf("%w: entry %q has %d floats, expected %d", ErrMalformed, name, len(parts), n)
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad float %q in entry %q", ErrMalformed, p, name)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// ReadRaw reads the next raw entry as decoded hex bytes.
func (r *Reader) ReadRaw() ([]byte, error) {
	name, v, err := r.readEntry("raw")
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: bad raw entry %q", ErrMalformed, name)
	}
	return b, nil
}
