package scene

import (
	"maps"
	"slices"
)

// Material describes the shading parameters of a surface.
//
// Nodes never share a Material instance: whoever assigns one to a node
// hands over a private copy (see Clone).
type Material struct {
	// Name is the material name as authored in the model.
	Name string `json:"name"`

	// Tag is a debug trace of where this instance came from, e.g.
	// "Raw_Marble.001_for_Bankskiva_1". Informational only.
	Tag string `json:"tag,omitempty"`

	// Color is the base colour as #rrggbb.
	Color string `json:"color"`

	Roughness float64 `json:"roughness"`
	Metalness float64 `json:"metalness"`

	// Opacity is 1 for opaque surfaces.
	Opacity float64 `json:"opacity"`

	// Params holds any other shading parameters carried by the asset
	// (clearcoat, sheen, ...).
	Params map[string]float64 `json:"params,omitempty"`
}

// Clone returns a deep copy of m, or nil if m is nil.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	if m.Params != nil {
		c.Params = maps.Clone(m.Params)
	}
	return &c
}

// SameLook reports whether two materials render identically. The Tag is
// ignored since it only records provenance.
func (m *Material) SameLook(o *Material) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Name == o.Name &&
		m.Color == o.Color &&
		m.Roughness == o.Roughness &&
		m.Metalness == o.Metalness &&
		m.Opacity == o.Opacity &&
		maps.Equal(m.Params, o.Params)
}

// Library maps embedded material names to their authored definitions.
// It is read only once the model has loaded.
type Library map[string]*Material

// Get returns the named material. It is safe to call on a nil Library.
func (l Library) Get(name string) (*Material, bool) {
	m, ok := l[name]
	return m, ok && m != nil
}

// Names returns the material names in sorted order.
func (l Library) Names() []string {
	return slices.Sorted(maps.Keys(l))
}
