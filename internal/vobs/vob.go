// Package vobs decodes the virtual object tree of a world's VobTree section.
package vobs

import (
	"strings"

	"github.com/samcharles93/zenworld/pkg/zen"
)

// classEmpty marks an empty vob slot in the archive. Such slots decode to nil
// and are dropped from the tree.
const classEmpty = "%"

// Vob is one node of the scene graph. Type-specific data for the trigger
// family hangs off the Trigger field; unrecognised classes keep their base
// fields only.
type Vob struct {
	Name      string
	ClassName string

	PresetName string
	BBox       [6]float32
	Rotation   []byte
	Position   zen.Vec3
	Visual     string
	ShowVisual bool
	CamAlign   uint32
	CDStatic   bool
	CDDynamic  bool
	Static     bool

	// Gothic 2 only.
	VisualAniMode         uint32
	VisualAniModeStrength float32
	FarClipScale          float32

	Trigger  *Trigger
	Children []*Vob
}

// ParseTree decodes one vob object and its children from the reader. An empty
// slot decodes to (nil, nil); its discarded children are still consumed so
// the cursor stays aligned with the sibling list.
func ParseTree(r *zen.Reader, rev zen.Revision) (*Vob, error) {
	hdr, err := r.ReadObjectBegin()
	if err != nil {
		return nil, err
	}

	if hdr.ClassName == classEmpty {
		if err := r.SkipObject(true); err != nil {
			return nil, err
		}
		if err := consumeChildren(r, rev, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	v := &Vob{Name: hdr.Name, ClassName: hdr.ClassName}
	if v.Name == classEmpty { // unnamed object
		v.Name = ""
	}
	if err := parseBase(v, r, rev); err != nil {
		return nil, err
	}
	if err := parseTyped(v, r, rev); err != nil {
		return nil, err
	}

	// Unrecognised classes and trailing fields of partially understood ones
	// land here; skip to keep the cursor on the child count.
	st, err := r.ReadObjectEnd()
	if err != nil {
		return nil, err
	}
	if st == zen.MoreContent {
		if err := r.SkipObject(true); err != nil {
			return nil, err
		}
	}

	if err := consumeChildren(r, rev, v); err != nil {
		return nil, err
	}
	return v, nil
}

func consumeChildren(r *zen.Reader, rev zen.Revision, parent *Vob) error {
	count, err := r.ReadInt()
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		child, err := ParseTree(r, rev)
		if err != nil {
			return err
		}
		if child == nil || parent == nil {
			continue
		}
		parent.Children = append(parent.Children, child)
	}
	return nil
}

func parseBase(v *Vob, r *zen.Reader, rev zen.Revision) error {
	var err error
	if v.PresetName, err = r.ReadString(); err != nil {
		return err
	}
	bbox, err := r.ReadFloats(6)
	if err != nil {
		return err
	}
	copy(v.BBox[:], bbox)
	if v.Rotation, err = r.ReadRaw(); err != nil {
		return err
	}
	if v.Position, err = r.ReadVec3(); err != nil {
		return err
	}
	vobName, err := r.ReadString()
	if err != nil {
		return err
	}
	// Most objects are unnamed in the header and carry their name here.
	if v.Name == "" {
		v.Name = vobName
	}
	if v.Visual, err = r.ReadString(); err != nil {
		return err
	}
	if v.ShowVisual, err = r.ReadBool(); err != nil {
		return err
	}
	if v.CamAlign, err = r.ReadEnum(); err != nil {
		return err
	}
	if v.CDStatic, err = r.ReadBool(); err != nil {
		return err
	}
	if v.CDDynamic, err = r.ReadBool(); err != nil {
		return err
	}
	if v.Static, err = r.ReadBool(); err != nil {
		return err
	}

	if rev == zen.RevisionGothic2 {
		if v.VisualAniMode, err = r.ReadEnum(); err != nil {
			return err
		}
		if v.VisualAniModeStrength, err = r.ReadFloat(); err != nil {
			return err
		}
		if v.FarClipScale, err = r.ReadFloat(); err != nil {
			return err
		}
	}
	return nil
}

// leafClass returns the most derived class of a ZenGin class chain like
// "oCTriggerScript:zCTrigger:zCVob".
func leafClass(className string) string {
	leaf, _, _ := strings.Cut(className, ":")
	return leaf
}
