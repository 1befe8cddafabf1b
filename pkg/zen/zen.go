// Package zen implements the ZenGin archive container primitives: a bounded
// cursor over raw archive bytes and the nested object protocol used to walk
// an archive's chunk tree.
//
// The package only reads archives. It describes structure and never
// interprets the world data itself; that is left to the parsers layered on
// top of it.
package zen

const (
	// MagicZen is the first line of every ZenGin archive.
	MagicZen = "ZenGin Archive"

	// FormatASCII is the only archive format this package decodes.
	// BINARY and BIN_SAFE archives are recognised and rejected.
	FormatASCII   = "ASCII"
	FormatBinary  = "BINARY"
	FormatBinSafe = "BIN_SAFE"
)

// Vec3 is a 3-component float vector as stored in rawFloat entries.
type Vec3 struct {
	X, Y, Z float32
}

// Revision distinguishes the two supported world encodings. Archives carry no
// top-level version tag; the revision is inferred from a magic constant
// embedded in the geometry section.
type Revision int

const (
	RevisionGothic1 Revision = iota
	RevisionGothic2
)

func (r Revision) String() string {
	switch r {
	case RevisionGothic1:
		return "gothic1"
	case RevisionGothic2:
		return "gothic2"
	default:
		return "revision(?)"
	}
}
