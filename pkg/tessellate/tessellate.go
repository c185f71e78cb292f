// Package tessellate walks a scene and produces triangle meshes using a
// geometry kernel. One mesh is produced per visible renderable node.
package tessellate

import (
	"fmt"

	"github.com/chazu/kitchenkit/pkg/kernel"
	"github.com/chazu/kitchenkit/pkg/scene"
)

// Part is the mesh of a single scene node, in world coordinates.
type Part struct {
	NodeID scene.NodeID `json:"nodeId"`
	Name   string       `json:"name"`
	Mesh   *kernel.Mesh `json:"mesh"`
}

// transformStack accumulates node offsets during traversal.
type transformStack struct {
	translations []scene.Vec3
	rotations    []scene.Vec3
}

func (ts *transformStack) push(n *scene.Node) {
	ts.translations = append(ts.translations, n.Position)
	ts.rotations = append(ts.rotations, n.Rotation)
}

func (ts *transformStack) pop() {
	ts.translations = ts.translations[:len(ts.translations)-1]
	ts.rotations = ts.rotations[:len(ts.rotations)-1]
}

func sum(vs []scene.Vec3) scene.Vec3 {
	var s scene.Vec3
	for _, v := range vs {
		s = s.Add(v)
	}
	return s
}

// Tessellate produces one mesh per visible renderable node, in scene
// traversal order. A hidden node hides its whole subtree. The scene is
// never mutated.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*Part, error) {
	if s == nil {
		return nil, nil
	}

	var parts []*Part
	ts := &transformStack{}
	for _, n := range s.Root.Children {
		collected, err := walkNode(k, n, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}

func walkNode(k kernel.Kernel, n *scene.Node, ts *transformStack) ([]*Part, error) {
	if !n.Visible {
		return nil, nil
	}

	ts.push(n)
	defer ts.pop()

	var parts []*Part
	if n.Renderable {
		p, err := meshNode(k, n, ts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	for _, c := range n.Children {
		collected, err := walkNode(k, c, ts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}

// shapeSolid builds a shape in local coordinates.
func shapeSolid(k kernel.Kernel, sh scene.Shape) (kernel.Solid, error) {
	switch sh.Kind {
	case scene.ShapeBox:
		return k.Box(sh.Size.X, sh.Size.Y, sh.Size.Z)
	case scene.ShapeCylinder:
		return k.Cylinder(sh.Size.Z, sh.Size.X/2)
	}
	return nil, fmt.Errorf("unsupported shape %v", sh.Kind)
}

// meshNode applies the accumulated rotation first, then the translation.
func meshNode(k kernel.Kernel, n *scene.Node, ts *transformStack) (*Part, error) {
	solid, err := shapeSolid(k, n.Shape)
	if err != nil {
		return nil, fmt.Errorf("node %s (%s): %w", n.Name, n.ID.Short(), err)
	}

	if rot := sum(ts.rotations); !rot.IsZero() {
		solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}
	if trans := sum(ts.translations); !trans.IsZero() {
		solid = k.Translate(solid, trans.X, trans.Y, trans.Z)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("node %s (%s): %w", n.Name, n.ID.Short(), err)
	}
	return &Part{NodeID: n.ID, Name: n.Name, Mesh: mesh}, nil
}
