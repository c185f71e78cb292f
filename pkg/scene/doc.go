// Package scene defines the kitchen scene graph: a tree of named nodes,
// the material each drawable node currently carries, and the material
// library authored alongside the model.
package scene
