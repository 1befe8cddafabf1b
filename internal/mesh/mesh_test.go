package mesh

import (
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/samcharles93/zenworld/pkg/zen"
)

func chunk(tag uint16, payload []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, tag)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

func headerChunk(version uint32, name string) []byte {
	payload := binary.LittleEndian.AppendUint32(nil, version)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(name)))
	payload = append(payload, name...)
	return chunk(chunkHeader, payload)
}

func vertexChunk(vs ...zen.Vec3) []byte {
	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(vs)))
	for _, v := range vs {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v.X))
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v.Y))
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v.Z))
	}
	return chunk(chunkVertices, payload)
}

func triangle(material uint16, verts ...uint32) []byte {
	out := binary.LittleEndian.AppendUint16(nil, material)
	out = binary.LittleEndian.AppendUint16(out, 0xFFFF) // lightmap -1
	out = append(out, 0)                                // flags
	out = append(out, uint8(len(verts)))
	for _, v := range verts {
		out = binary.LittleEndian.AppendUint32(out, v)
		out = binary.LittleEndian.AppendUint32(out, v) // feature index mirrors vertex
	}
	return out
}

func polygonChunk(polys ...[]byte) []byte {
	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(polys)))
	for _, p := range polys {
		payload = append(payload, p...)
	}
	return chunk(chunkPolygons, payload)
}

func TestParseMesh(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, headerChunk(9, "OLDWORLD.ZEN")...)
	data = append(data, vertexChunk(
		zen.Vec3{X: 0, Y: 0, Z: 0},
		zen.Vec3{X: 1, Y: 0, Z: 0},
		zen.Vec3{X: 0, Y: 1, Z: 0},
	)...)
	data = append(data, polygonChunk(
		triangle(0, 0, 1, 2),
		triangle(1, 2, 1, 0),
	)...)
	data = append(data, chunk(ChunkEnd, nil)...)

	m, err := Parse(zen.NewBuffer(data), []uint32{1})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Version != 9 || m.Name != "OLDWORLD.ZEN" {
		t.Fatalf("header = %d %q", m.Version, m.Name)
	}
	if len(m.Vertices) != 3 {
		t.Fatalf("vertices = %d", len(m.Vertices))
	}
	if len(m.Polygons) != 2 {
		t.Fatalf("polygons = %d", len(m.Polygons))
	}
	if m.Polygons[1].Material != 1 || m.Polygons[1].Lightmap != -1 {
		t.Fatalf("polygon 1 = %+v", m.Polygons[1])
	}
	if want := []uint32{0, 1, 2}; !slices.Equal(m.Polygons[0].Vertices, want) {
		t.Fatalf("polygon 0 vertices = %v, want %v", m.Polygons[0].Vertices, want)
	}
	if want := []uint32{1}; !slices.Equal(m.LeafPolygons, want) {
		t.Fatalf("leaf polygons = %v, want %v", m.LeafPolygons, want)
	}
}

func TestParseRejectsLeafIndexOutsideMesh(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, polygonChunk(triangle(0, 0, 1, 2))...)
	data = append(data, chunk(ChunkEnd, nil)...)

	if _, err := Parse(zen.NewBuffer(data), []uint32{5}); !errors.Is(err, zen.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParseSkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, chunk(0xBEEF, []byte{1, 2, 3})...)
	data = append(data, chunk(ChunkEnd, nil)...)

	m, err := Parse(zen.NewBuffer(data), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Polygons) != 0 {
		t.Fatalf("unexpected polygons: %+v", m.Polygons)
	}
}

func TestParseTruncatedVertices(t *testing.T) {
	t.Parallel()

	data := vertexChunk(zen.Vec3{X: 1, Y: 2, Z: 3})
	data = data[:len(data)-4] // cut the last component

	if _, err := Parse(zen.NewBuffer(data), nil); !errors.Is(err, zen.ErrEOF) {
		t.Fatalf("err = %v, want ErrEOF", err)
	}
}

func TestParseAbsurdDeclaredCounts(t *testing.T) {
	t.Parallel()

	// Counts near the u32 maximum over a few bytes of payload must fail on
	// the first short read instead of reserving by the declared count.
	huge := func(tag uint16) []byte {
		payload := binary.LittleEndian.AppendUint32(nil, 0xFFFFFFFF)
		payload = append(payload, 1, 2, 3, 4)
		return chunk(tag, payload)
	}
	cases := []struct {
		name string
		data []byte
	}{
		{"vertices", huge(chunkVertices)},
		{"polygons", huge(chunkPolygons)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(zen.NewBuffer(tc.data), nil); !errors.Is(err, zen.ErrEOF) {
				t.Fatalf("err = %v, want ErrEOF", err)
			}
		})
	}
}
