package scene

import "strings"

// Node is a single element of the scene graph. Grouping nodes have
// Renderable == false and only carry children.
type Node struct {
	ID         NodeID    `json:"id"`
	Name       string    `json:"name"`
	Renderable bool      `json:"renderable"`
	Visible    bool      `json:"visible"`
	Material   *Material `json:"material,omitempty"`

	// Authored is the material the node was loaded with. It is never
	// assigned to the node directly; restoring it means cloning it.
	Authored *Material `json:"-"`

	// Tag is an optional zone tag set at authoring time ("cabinet",
	// "countertop", "handle"). Empty means the zone is inferred from Name.
	Tag string `json:"tag,omitempty"`

	Shape    Shape `json:"shape"`
	Position Vec3  `json:"position"` // relative to the parent
	Rotation Vec3  `json:"rotation"` // Euler angles in degrees

	Children []*Node `json:"children,omitempty"`
	parent   *Node
}

// NewPart returns a visible renderable node with the given shape and
// authored material. The authored material is cloned into Material.
func NewPart(name string, shape Shape, authored *Material) *Node {
	return &Node{
		Name:       name,
		Renderable: true,
		Visible:    true,
		Shape:      shape,
		Authored:   authored,
		Material:   authored.Clone(),
	}
}

// NewGroup returns a non-renderable grouping node holding children.
func NewGroup(name string, children ...*Node) *Node {
	g := &Node{Name: name, Visible: true}
	for _, c := range children {
		c.parent = g
		g.Children = append(g.Children, c)
	}
	return g
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Path returns the slash-separated names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, c.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// WorldPosition returns the sum of positions from the root down to n.
func (n *Node) WorldPosition() Vec3 {
	var p Vec3
	for c := n; c != nil; c = c.parent {
		p = p.Add(c.Position)
	}
	return p
}

// WorldRotation returns the sum of rotations from the root down to n.
func (n *Node) WorldRotation() Vec3 {
	var r Vec3
	for c := n; c != nil; c = c.parent {
		r = r.Add(c.Rotation)
	}
	return r
}
