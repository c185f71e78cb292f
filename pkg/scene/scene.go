package scene

import "fmt"

// RootName is the name given to the implicit root node.
const RootName = "Scene"

// Scene is a loaded kitchen model: the node tree plus the material library
// that came with it.
type Scene struct {
	Root    *Node
	Library Library

	// OnChange is called after a node's appearance changed so the host
	// can schedule a redraw. It may be nil.
	OnChange func(n *Node)
}

// New creates an empty scene with an empty library.
func New() *Scene {
	root := &Node{Name: RootName, Visible: true}
	root.ID = NewNodeID(RootName)
	return &Scene{
		Root:    root,
		Library: make(Library),
	}
}

// Add attaches n (and its subtree) under parent, or under the root when
// parent is nil, and assigns IDs to every node in the subtree.
func (s *Scene) Add(parent, n *Node) *Node {
	if parent == nil {
		parent = s.Root
	}
	n.parent = parent
	parent.Children = append(parent.Children, n)
	assignIDs(n, len(parent.Children)-1)
	return n
}

// assignIDs derives IDs from the parent ID, the sibling index and the name,
// so nodes with equal names still get distinct, reproducible IDs.
func assignIDs(n *Node, index int) {
	n.ID = NewNodeID(fmt.Sprintf("%s/%d:%s", n.parent.ID, index, n.Name))
	for i, c := range n.Children {
		c.parent = n
		assignIDs(c, i)
	}
}

// Walk visits every node below the root in depth-first preorder, children
// in insertion order. Returning false from fn skips the node's children.
func (s *Scene) Walk(fn func(n *Node) bool) {
	for _, c := range s.Root.Children {
		walk(c, fn)
	}
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}

// Lookup returns the first node in traversal order with the given name,
// or nil.
func (s *Scene) Lookup(name string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id NodeID) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Nodes returns every node below the root in traversal order.
func (s *Scene) Nodes() []*Node {
	var nodes []*Node
	s.Walk(func(n *Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Renderables returns the drawable nodes in traversal order.
func (s *Scene) Renderables() []*Node {
	var nodes []*Node
	s.Walk(func(n *Node) bool {
		if n.Renderable {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// NodeCount returns the number of nodes below the root.
func (s *Scene) NodeCount() int {
	count := 0
	s.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// MarkDirty reports an appearance change on n to the host.
func (s *Scene) MarkDirty(n *Node) {
	if s.OnChange != nil {
		s.OnChange(n)
	}
}
