// Package mesh decodes the renderable world mesh from the binary payload of
// a world's MeshAndBsp section.
package mesh

import (
	"fmt"

	"github.com/samcharles93/zenworld/pkg/zen"
)

const (
	chunkHeader   uint16 = 0xB000
	chunkBBox     uint16 = 0xB010
	chunkVertices uint16 = 0xB030
	chunkPolygons uint16 = 0xB050

	// ChunkEnd terminates the mesh chunk run. The world dispatcher scans the
	// same run for this tag to find the start of the BSP payload.
	ChunkEnd uint16 = 0xB060
)

// Polygon is one mesh face. Vertices and Features index into the mesh-level
// arrays.
type Polygon struct {
	Material int32
	Lightmap int16
	Flags    uint8
	Vertices []uint32
	Features []uint32
}

// Mesh is the decoded world geometry.
type Mesh struct {
	Version  uint32
	Name     string
	BBox     [6]float32
	Vertices []zen.Vec3
	Polygons []Polygon

	// LeafPolygons is the subset of Polygons referenced by the partition
	// tree's leaves, in index order.
	LeafPolygons []uint32
}

// Parse decodes a mesh from the geometry payload slice. leafPolygons is the
// leaf-to-polygon index produced by the bsp parser; entries outside the
// decoded polygon range are rejected.
func Parse(buf *zen.Buffer, leafPolygons []uint32) (*Mesh, error) {
	m := &Mesh{}

	for {
		tag, err := buf.ReadU16()
		if err != nil {
			return nil, err
		}
		length, err := buf.ReadU32()
		if err != nil {
			return nil, err
		}

		switch tag {
		case chunkHeader:
			if err := parseHeader(buf, m); err != nil {
				return nil, err
			}
		case chunkBBox:
			for i := range m.BBox {
				if m.BBox[i], err = buf.ReadF32(); err != nil {
					return nil, err
				}
			}
		case chunkVertices:
			if err := parseVertices(buf, m); err != nil {
				return nil, err
			}
		case chunkPolygons:
			if err := parsePolygons(buf, m); err != nil {
				return nil, err
			}
		case ChunkEnd:
			if err := buf.Skip(int(length)); err != nil {
				return nil, err
			}
			if err := selectLeafPolygons(m, leafPolygons); err != nil {
				return nil, err
			}
			return m, nil
		default:
			if err := buf.Skip(int(length)); err != nil {
				return nil, err
			}
		}
	}
}

func parseHeader(buf *zen.Buffer, m *Mesh) error {
	var err error
	if m.Version, err = buf.ReadU32(); err != nil {
		return err
	}
	nameLen, err := buf.ReadU16()
	if err != nil {
		return err
	}
	name, err := buf.ReadBytes(int(nameLen))
	if err != nil {
		return err
	}
	m.Name = string(name)
	return nil
}

func parseVertices(buf *zen.Buffer, m *Mesh) error {
	count, err := buf.ReadU32()
	if err != nil {
		return err
	}
	// 12 bytes per vertex; cap the reservation by the payload so a lying
	// count fails on the first short read instead of allocating up front.
	m.Vertices = make([]zen.Vec3, 0, min(int(count), buf.Remaining()/12))
	for i := uint32(0); i < count; i++ {
		var v zen.Vec3
		if v.X, err = buf.ReadF32(); err != nil {
			return err
		}
		if v.Y, err = buf.ReadF32(); err != nil {
			return err
		}
		if v.Z, err = buf.ReadF32(); err != nil {
			return err
		}
		m.Vertices = append(m.Vertices, v)
	}
	return nil
}

func parsePolygons(buf *zen.Buffer, m *Mesh) error {
	count, err := buf.ReadU32()
	if err != nil {
		return err
	}
	// A polygon record is at least 6 bytes.
	m.Polygons = make([]Polygon, 0, min(int(count), buf.Remaining()/6))
	for i := uint32(0); i < count; i++ {
		var p Polygon
		material, err := buf.ReadU16()
		if err != nil {
			return err
		}
		p.Material = int32(material)
		if p.Lightmap, err = buf.ReadI16(); err != nil {
			return err
		}
		if p.Flags, err = buf.ReadU8(); err != nil {
			return err
		}
		vertexCount, err := buf.ReadU8()
		if err != nil {
			return err
		}
		p.Vertices = make([]uint32, vertexCount)
		p.Features = make([]uint32, vertexCount)
		for j := range p.Vertices {
			if p.Vertices[j], err = buf.ReadU32(); err != nil {
				return err
			}
			if p.Features[j], err = buf.ReadU32(); err != nil {
				return err
			}
		}
		m.Polygons = append(m.Polygons, p)
	}
	return nil
}

func selectLeafPolygons(m *Mesh, leafPolygons []uint32) error {
	m.LeafPolygons = make([]uint32, 0, len(leafPolygons))
	for _, idx := range leafPolygons {
		if int(idx) >= len(m.Polygons) {
			return fmt.Errorf("%w: leaf polygon %d outside mesh of %d polygons",
				zen.ErrMalformed, idx, len(m.Polygons))
		}
		m.LeafPolygons = append(m.LeafPolygons, idx)
	}
	return nil
}
