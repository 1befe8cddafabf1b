// Package world decodes a full game world from a ZenGin archive: partition
// tree, render mesh, virtual object tree and way-net.
//
// Archives carry no top-level version tag. When the caller does not know the
// revision, DetectRevision scans the archive for the MeshAndBsp section and
// inspects the bsp version constant embedded there; everything in front of it
// has to be skipped, so the probe can cost as much as reading the preceding
// sections once.
package world

import (
	"fmt"

	"github.com/samcharles93/zenworld/internal/bsp"
	"github.com/samcharles93/zenworld/internal/logger"
	"github.com/samcharles93/zenworld/internal/mesh"
	"github.com/samcharles93/zenworld/internal/vobs"
	"github.com/samcharles93/zenworld/internal/waynet"
	"github.com/samcharles93/zenworld/pkg/zen"
)

const (
	// bspVersionGothic1 and bspVersionGothic2 are the bsp encoding constants
	// found at the start of the MeshAndBsp payload. Gothic 2's value doubles
	// as the revision probe's magic tag; anything else means Gothic 1.
	bspVersionGothic1 uint32 = 0x2090000
	bspVersionGothic2 uint32 = 0x4090000

	rootClass = "oCWorld:zCWorld"
)

// sectionKind is the closed dispatch set of recognised world sections.
type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionMeshAndBsp
	sectionVobTree
	sectionWayNet
)

func sectionOf(name string) sectionKind {
	switch name {
	case "MeshAndBsp":
		return sectionMeshAndBsp
	case "VobTree":
		return sectionVobTree
	case "WayNet":
		return sectionWayNet
	default:
		return sectionUnknown
	}
}

// World is the decoded aggregate. Sections absent from the archive leave
// their field nil; only the geometry pair is needed for a materially useful
// world, but its absence is not an error at this layer.
type World struct {
	Revision zen.Revision
	BspTree  *bsp.Tree
	Mesh     *mesh.Mesh
	Vobs     []*vobs.Vob
	WayNet   *waynet.WayNet
}

// Parser decodes worlds. The zero value is not usable; construct with
// NewParser.
type Parser struct {
	log logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	if log == nil {
		log = logger.Default()
	}
	return &Parser{log: log}
}

// DetectRevision infers the archive's encoding revision. It probes an
// independent duplicate cursor, so the caller's buffer is unaffected. When
// the archive has no MeshAndBsp section the revision cannot be determined
// and Gothic 1 is assumed.
func (p *Parser) DetectRevision(buf *zen.Buffer) (zen.Revision, error) {
	probe := buf.Dup()
	r, err := zen.OpenReader(probe)
	if err != nil {
		return zen.RevisionGothic1, decodeErr(err)
	}
	if _, err := r.ReadObjectBegin(); err != nil {
		return zen.RevisionGothic1, decodeErr(err)
	}

	for {
		st, err := r.ReadObjectEnd()
		if err != nil {
			return zen.RevisionGothic1, decodeErr(err)
		}
		if st == zen.FrameExhausted {
			break
		}

		hdr, err := r.ReadObjectBegin()
		if err != nil {
			return zen.RevisionGothic1, decodeErr(err)
		}
		if sectionOf(hdr.Name) == sectionMeshAndBsp {
			// The bsp version sits at the raw cursor, in front of the
			// chunked payload.
			version, err := probe.ReadU32()
			if err != nil {
				return zen.RevisionGothic1, decodeErr(err)
			}
			if version == bspVersionGothic2 {
				return zen.RevisionGothic2, nil
			}
			return zen.RevisionGothic1, nil
		}
		if err := r.SkipObject(true); err != nil {
			return zen.RevisionGothic1, decodeErr(err)
		}
	}

	p.log.Warn("world: failed to determine revision, assuming gothic1")
	return zen.RevisionGothic1, nil
}

// Parse decodes a world, probing the revision first on a duplicate cursor.
func (p *Parser) Parse(buf *zen.Buffer) (*World, error) {
	rev, err := p.DetectRevision(buf)
	if err != nil {
		return nil, err
	}
	return p.ParseRevision(buf, rev)
}

// ParseRevision decodes a world with a known revision. On any fatal failure
// the partially built world is discarded.
func (p *Parser) ParseRevision(buf *zen.Buffer, rev zen.Revision) (*World, error) {
	r, err := zen.OpenReader(buf)
	if err != nil {
		return nil, decodeErr(err)
	}

	root, err := r.ReadObjectBegin()
	if err != nil {
		return nil, decodeErr(err)
	}
	if root.ClassName != rootClass {
		return nil, fmt.Errorf("world: %w: expected %q, got %q", ErrRootMismatch, rootClass, root.ClassName)
	}

	w := &World{Revision: rev}
	for {
		st, err := r.ReadObjectEnd()
		if err != nil {
			return nil, decodeErr(err)
		}
		if st == zen.FrameExhausted {
			break
		}

		hdr, err := r.ReadObjectBegin()
		if err != nil {
			return nil, decodeErr(err)
		}
		p.log.Debug("world: parsing object",
			"name", hdr.Name, "class", hdr.ClassName, "version", hdr.Version, "index", hdr.Index)

		switch sectionOf(hdr.Name) {
		case sectionMeshAndBsp:
			if err := p.parseGeometry(w, r); err != nil {
				return nil, decodeErr(err)
			}
		case sectionVobTree:
			if err := p.parseVobTree(w, r, rev); err != nil {
				return nil, decodeErr(err)
			}
		case sectionWayNet:
			if w.WayNet, err = waynet.Parse(r); err != nil {
				return nil, decodeErr(err)
			}
		case sectionUnknown:
			// No section-specific consumption; the resynchronisation below
			// discards whatever the section holds.
		}

		st, err = r.ReadObjectEnd()
		if err != nil {
			return nil, decodeErr(err)
		}
		if st == zen.MoreContent {
			p.log.Warn("world: object not fully parsed",
				"name", hdr.Name, "class", hdr.ClassName, "version", hdr.Version, "index", hdr.Index)
			if err := r.SkipObject(true); err != nil {
				return nil, decodeErr(err)
			}
		}
	}

	return w, nil
}

// parseGeometry splices two views over the MeshAndBsp payload: the main
// cursor walks the header run and then the bsp payload, while an independent
// slice taken before the run is handed to the mesh parser.
func (p *Parser) parseGeometry(w *World, r *zen.Reader) error {
	buf := r.Buf()

	bspVersion, err := buf.ReadU32()
	if err != nil {
		return err
	}
	if _, err := buf.ReadU32(); err != nil { // declared size, advisory only
		return err
	}

	meshData := buf.Slice()

	// Skip the mesh chunk run on the main cursor; the bsp payload starts
	// after the mesh end sentinel.
	for {
		tag, err := buf.ReadU16()
		if err != nil {
			return err
		}
		length, err := buf.ReadU32()
		if err != nil {
			return err
		}
		if err := buf.Skip(int(length)); err != nil {
			return err
		}
		if tag == mesh.ChunkEnd {
			break
		}
	}

	tree, err := bsp.Parse(buf, bspVersion)
	if err != nil {
		return err
	}
	m, err := mesh.Parse(meshData, tree.LeafPolygons)
	if err != nil {
		return err
	}
	w.BspTree = tree
	w.Mesh = m
	return nil
}

func (p *Parser) parseVobTree(w *World, r *zen.Reader, rev zen.Revision) error {
	count, err := r.ReadInt()
	if err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("%w: negative vob count %d", zen.ErrMalformed, count)
	}

	// Even an empty slot takes over 16 bytes of archive text; a lying count
	// cannot reserve more than the remaining bytes could ever hold.
	w.Vobs = make([]*vobs.Vob, 0, min(int(count), r.Buf().Remaining()/16))
	for i := int32(0); i < count; i++ {
		child, err := vobs.ParseTree(r, rev)
		if err != nil {
			return err
		}
		if child == nil {
			continue
		}
		w.Vobs = append(w.Vobs, child)
	}
	return nil
}
