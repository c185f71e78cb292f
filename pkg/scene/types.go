package scene

import (
	"github.com/google/uuid"
)

// NodeID is a deterministic identifier derived from a node's position in
// the tree. Names are not unique, so the frontend addresses nodes by ID.
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// nodeNamespace scopes generated node IDs to this project.
var nodeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kitchenkit/scene"))

// NewNodeID derives a stable ID from a tree path.
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(nodeNamespace, []byte(path)).String())
}

// Short returns the first 8 characters of the ID for log messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Vec3 is a 3D vector in millimetres (positions, sizes) or degrees (rotations).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// ShapeKind distinguishes the primitive a renderable node is drawn with.
type ShapeKind int

const (
	ShapeNone     ShapeKind = iota // grouping node, nothing to draw
	ShapeBox                       // Size is X x Y x Z
	ShapeCylinder                  // Size.X is the diameter, Size.Z the length
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeNone:
		return "none"
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// Shape is the geometry of a renderable node.
type Shape struct {
	Kind ShapeKind `json:"kind"`
	Size Vec3      `json:"size"`
}
