// Package bsp decodes the binary space partition tree embedded in a world's
// MeshAndBsp section.
package bsp

import (
	"fmt"
	"slices"

	"github.com/samcharles93/zenworld/pkg/zen"
)

const (
	chunkHeader  uint16 = 0xC000
	chunkIndices uint16 = 0xC010
	chunkNodes   uint16 = 0xC040
	chunkEnd     uint16 = 0xC0FF

	// ModeIndoor and ModeOutdoor are the two tree layouts found in shipped
	// worlds.
	ModeIndoor  uint32 = 0
	ModeOutdoor uint32 = 1
)

// Node is one cell of the partition tree. Front and Back index into
// Tree.Nodes; -1 means no child on that side. Leaf nodes reference a run of
// Tree.PolygonIndices.
type Node struct {
	BBox       [6]float32
	Front      int32
	Back       int32
	PolyOffset uint32
	PolyCount  uint32
	Leaf       bool
}

// Tree is the decoded partition tree.
type Tree struct {
	Version        uint32
	Mode           uint32
	PolygonIndices []uint32
	Nodes          []Node

	// LeafPolygons is the sorted, deduplicated set of polygon indices
	// referenced by leaf nodes. The mesh parser uses it to select the
	// renderable leaf polygons.
	LeafPolygons []uint32
}

// Parse decodes a tree from the cursor, which must sit on the first BSP
// chunk. version is the bsp encoding version read by the world dispatcher.
func Parse(buf *zen.Buffer, version uint32) (*Tree, error) {
	tree := &Tree{Version: version}

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
			if tree.Mode, err = buf.ReadU32(); err != nil {
				return nil, err
			}
		case chunkIndices:
			count, err := buf.ReadU32()
			if err != nil {
				return nil, err
			}
			// Reserve no more than the payload can hold; a lying count fails
			// on the first short read instead of allocating up front.
			tree.PolygonIndices = make([]uint32, 0, min(int(count), buf.Remaining()/4))
			for i := uint32(0); i < count; i++ {
				v, err := buf.ReadU32()
				if err != nil {
					return nil, err
				}
				tree.PolygonIndices = append(tree.PolygonIndices, v)
			}
		case chunkNodes:
			if err := parseNodes(buf, tree); err != nil {
				return nil, err
			}
		case chunkEnd:
			if err := buf.Skip(int(length)); err != nil {
				return nil, err
			}
			if err := collectLeafPolygons(tree); err != nil {
				return nil, err
			}
			return tree, nil
		default:
			if err := buf.Skip(int(length)); err != nil {
				return nil, err
			}
		}
	}
}

func parseNodes(buf *zen.Buffer, tree *Tree) error {
	nodeCount, err := buf.ReadU32()
	if err != nil {
		return err
	}
	if _, err := buf.ReadU32(); err != nil { // leaf count, implied by the records
		return err
	}

	// 41 bytes per node record; cap the reservation by the payload.
	tree.Nodes = make([]Node, 0, min(int(nodeCount), buf.Remaining()/41))
	for i := uint32(0); i < nodeCount; i++ {
		var n Node
		for j := range n.BBox {
			if n.BBox[j], err = buf.ReadF32(); err != nil {
				return err
			}
		}
		if n.Front, err = buf.ReadI32(); err != nil {
			return err
		}
		if n.Back, err = buf.ReadI32(); err != nil {
			return err
		}
		if n.PolyOffset, err = buf.ReadU32(); err != nil {
			return err
		}
		if n.PolyCount, err = buf.ReadU32(); err != nil {
			return err
		}
		leaf, err := buf.ReadU8()
		if err != nil {
			return err
		}
		n.Leaf = leaf != 0
		tree.Nodes = append(tree.Nodes, n)
	}
	return nil
}

func collectLeafPolygons(tree *Tree) error {
	seen := make(map[uint32]struct{})
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if !n.Leaf {
			continue
		}
		end := uint64(n.PolyOffset) + uint64(n.PolyCount)
		if end > uint64(len(tree.PolygonIndices)) {
			return fmt.Errorf("%w: leaf node %d references polygons %d..%d of %d",
				zen.ErrMalformed, i, n.PolyOffset, end, len(tree.PolygonIndices))
		}
		for _, p := range tree.PolygonIndices[n.PolyOffset:end] {
			seen[p] = struct{}{}
		}
	}

	tree.LeafPolygons = make([]uint32, 0, len(seen))
	for p := range seen {
		tree.LeafPolygons = append(tree.LeafPolygons, p)
	}
	slices.Sort(tree.LeafPolygons)
	return nil
}
