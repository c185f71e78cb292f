// Package kernel defines the geometry kernel used to turn part shapes into
// renderable meshes. The sdfx subpackage provides the implementation.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and meshes solids. Primitives have their minimum corner at
// the origin, so translating by a part position puts the part's corner
// there.
type Kernel interface {
	Box(x, y, z float64) (Solid, error)

	// Cylinder returns a Z-aligned cylinder standing on the XY plane.
	Cylinder(height, radius float64) (Solid, error)

	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	ToMesh(s Solid) (*Mesh, error)
}
