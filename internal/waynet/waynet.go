// Package waynet decodes the navigation graph of a world's WayNet section.
package waynet

import (
	"fmt"

	"github.com/samcharles93/zenworld/pkg/zen"
)

// classReference marks an archived back-reference to an earlier object. The
// ZenGin writes it as a single 0xA7 byte in the class position.
const classReference = "\xa7"

// Waypoint is one node of the navigation graph.
type Waypoint struct {
	Name       string
	WaterDepth int32
	UnderWater bool
	Position   zen.Vec3
	Direction  zen.Vec3
}

// Edge connects two waypoints by their index in WayNet.Waypoints.
type Edge struct {
	A, B int
}

// WayNet is the decoded navigation graph.
type WayNet struct {
	Version   int32
	Waypoints []*Waypoint
	Edges     []Edge
}

// Parse decodes a way-net from the reader, which must sit on the zCWayNet
// object inside the WayNet section.
func Parse(r *zen.Reader) (*WayNet, error) {
	hdr, err := r.ReadObjectBegin()
	if err != nil {
		return nil, err
	}
	if hdr.ClassName != "zCWayNet" {
		return nil, fmt.Errorf("%w: expected zCWayNet, got %q", zen.ErrMalformed, hdr.ClassName)
	}

	net := &WayNet{}
	if net.Version, err = r.ReadInt(); err != nil { // waynetVersion
		return nil, err
	}

	count, err := r.ReadInt() // numWaypoints
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < count; i++ {
		if _, err := readWaypoint(r, net); err != nil {
			return nil, err
		}
	}

	ways, err := r.ReadInt() // numWays
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < ways; i++ {
		a, err := readWaypoint(r, net)
		if err != nil {
			return nil, err
		}
		b, err := readWaypoint(r, net)
		if err != nil {
			return nil, err
		}
		net.Edges = append(net.Edges, Edge{A: a, B: b})
	}

	// Close the zCWayNet object; tolerate trailing content from newer
	// writers.
	st, err := r.ReadObjectEnd()
	if err != nil {
		return nil, err
	}
	if st == zen.MoreContent {
		if err := r.SkipObject(true); err != nil {
			return nil, err
		}
	}
	return net, nil
}

// readWaypoint reads one waypoint object or a back-reference to one and
// returns its index in net.Waypoints.
func readWaypoint(r *zen.Reader, net *WayNet) (int, error) {
	hdr, err := r.ReadObjectBegin()
	if err != nil {
		return 0, err
	}

	if hdr.ClassName == classReference {
		st, err := r.ReadObjectEnd()
		if err != nil {
			return 0, err
		}
		if st == zen.MoreContent {
			return 0, fmt.Errorf("%w: reference object with content", zen.ErrMalformed)
		}
		idx, ok := r.Lookup(hdr.Index)
		if !ok {
			return 0, fmt.Errorf("%w: reference to unknown object %d", zen.ErrMalformed, hdr.Index)
		}
		wp, ok := idx.(int)
		if !ok {
			return 0, fmt.Errorf("%w: object %d is not a waypoint", zen.ErrMalformed, hdr.Index)
		}
		return wp, nil
	}

	wp := &Waypoint{}
	if wp.Name, err = r.ReadString(); err != nil { // wpName
		return 0, err
	}
	if wp.WaterDepth, err = r.ReadInt(); err != nil { // waterDepth
		return 0, err
	}
	if wp.UnderWater, err = r.ReadBool(); err != nil { // underWater
		return 0, err
	}
	if wp.Position, err = r.ReadVec3(); err != nil { // position
		return 0, err
	}
	if wp.Direction, err = r.ReadVec3(); err != nil { // direction
		return 0, err
	}

	st, err := r.ReadObjectEnd()
	if err != nil {
		return 0, err
	}
	if st == zen.MoreContent {
		if err := r.SkipObject(true); err != nil {
			return 0, err
		}
	}

	index := len(net.Waypoints)
	net.Waypoints = append(net.Waypoints, wp)
	r.Register(hdr.Index, index)
	return index, nil
}
