package apply

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/scene"
	"github.com/chazu/kitchenkit/pkg/zone"
)

var doorWhite = &scene.Material{Name: "Door_White", Color: "#f4f4f0", Roughness: 0.5, Opacity: 1}

func part(name string, authored *scene.Material) *scene.Node {
	return scene.NewPart(name, scene.Shape{Kind: scene.ShapeBox, Size: scene.Vec3{X: 1, Y: 1, Z: 1}}, authored)
}

// kitchen builds a small scene with two cabinet parts, a countertop and
// two handles, one of which has no material.
func kitchen() *scene.Scene {
	s := scene.New()
	s.Library["Marble.001"] = &scene.Material{Name: "Marble.001", Color: "#e5e7eb", Roughness: 0.2, Opacity: 1, Params: map[string]float64{"clearcoat": 0.3}}
	s.Library["Door_White"] = doorWhite
	s.Add(nil, scene.NewGroup("Wall_Run",
		part("Cabinet_Door_1", doorWhite),
		part("Cabinet_Frame", doorWhite),
		part("Bänkskiva_1", &scene.Material{Name: "Laminate", Color: "#dddddd", Opacity: 1}),
	))
	s.Add(nil, part("Handle_1", &scene.Material{Name: "Chrome", Color: "#cccccc", Metalness: 1, Opacity: 1}))
	s.Add(nil, part("Knopp_2", nil))
	return s
}

func newApplicator() *Applicator {
	return NewFromCatalog(nil, nil)
}

func mustSelect(t *testing.T, c Config, req Request) Config {
	t.Helper()
	c, err := c.Select(req)
	require.NoError(t, err)
	return c
}

func snapshot(s *scene.Scene) map[string]*scene.Material {
	out := make(map[string]*scene.Material)
	for _, n := range s.Renderables() {
		out[n.Name] = n.Material
	}
	return out
}

func TestEmptyScene(t *testing.T) {
	a := newApplicator()
	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "marble"})

	res := a.ApplyCustomization(scene.New(), scene.Library{}, cfg)

	require.Len(t, res.Zones, 3)
	for _, zr := range res.Zones {
		assert.Equal(t, 0, zr.Matched, zr.Zone.String())
		assert.False(t, zr.UsedPlaceholder, zr.Zone.String())
		found := false
		for _, d := range zr.Diagnostics {
			if errors.Is(d, ErrEmptyMatch) {
				found = true
			}
		}
		assert.True(t, found, "%s should report an empty match", zr.Zone)
	}
}

func TestCountertopMarbleFromLibrary(t *testing.T) {
	s := scene.New()
	lib := scene.Library{"Marble.001": {Name: "Marble.001", Color: "#e5e7eb", Roughness: 0.2, Opacity: 1}}
	node := s.Add(nil, part("Bänkskiva_1", nil))

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "marble"})
	res := newApplicator().ApplyCustomization(s, lib, cfg)

	zr := res.Zone(zone.Countertop)
	assert.Equal(t, 1, zr.Matched)
	assert.False(t, zr.UsedPlaceholder)
	require.NotNil(t, node.Material)
	assert.NotSame(t, lib["Marble.001"], node.Material)
	assert.True(t, node.Material.SameLook(lib["Marble.001"]))
	assert.Equal(t, "Raw_Marble.001_for_Bänkskiva_1", node.Material.Tag)
}

func TestCountertopUnmappedKeyUsesPlaceholder(t *testing.T) {
	s := kitchen()
	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "cidar"})

	res := newApplicator().ApplyCustomization(s, s.Library, cfg)

	zr := res.Zone(zone.Countertop)
	assert.Equal(t, 1, zr.Matched)
	assert.True(t, zr.UsedPlaceholder)
	require.Len(t, zr.Diagnostics, 1)
	assert.True(t, errors.Is(zr.Diagnostics[0], ErrNotFound))
	assert.Equal(t, "cidar", zr.Diagnostics[0].Subject)

	top := s.Lookup("Bänkskiva_1")
	assert.Equal(t, "#a0522d", top.Material.Color)
}

func TestMappedKeyMissingFromLibrary(t *testing.T) {
	s := kitchen()
	delete(s.Library, "Marble.001")
	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "marble"})

	zr := newApplicator().ApplyCustomization(s, s.Library, cfg).Zone(zone.Countertop)

	assert.True(t, zr.UsedPlaceholder)
	require.Len(t, zr.Diagnostics, 1)
	assert.Equal(t, "Marble.001", zr.Diagnostics[0].Subject)
	assert.Equal(t, "not_found", zr.Diagnostics[0].Kind)
}

func TestFlatThenMaterialLeavesNoTrace(t *testing.T) {
	s := kitchen()
	a := newApplicator()

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Cabinet, Color: "#111111"})
	a.ApplyCustomization(s, s.Library, cfg)
	for _, n := range a.Index().Find(s, zone.Cabinet) {
		require.Equal(t, "#111111", n.Material.Color)
	}

	cfg = mustSelect(t, cfg, Request{Zone: zone.Cabinet, Key: "stone"})
	assert.Equal(t, Selection{Mode: ModeMaterial, Key: "stone"}, cfg.Cabinet)
	res := a.ApplyCustomization(s, s.Library, cfg)

	stone := a.Resolver().Placeholder("stone")
	cabinet := a.Index().Find(s, zone.Cabinet)
	require.Len(t, cabinet, 2)
	assert.Equal(t, 2, res.Zone(zone.Cabinet).Matched)
	for _, n := range cabinet {
		assert.True(t, n.Material.SameLook(stone), n.Name)
		assert.NotEqual(t, "#111111", n.Material.Color)
	}
}

func TestMaterialThenFlatClearsMaterial(t *testing.T) {
	s := kitchen()
	a := newApplicator()

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "marble"})
	a.ApplyCustomization(s, s.Library, cfg)
	top := s.Lookup("Bänkskiva_1")
	require.Equal(t, "Marble.001", top.Material.Name)

	cfg = mustSelect(t, cfg, Request{Zone: zone.Countertop, Color: "#D9C7A1"})
	assert.Equal(t, Selection{Mode: ModeFlat, Color: "#d9c7a1"}, cfg.Countertop)
	a.ApplyCustomization(s, s.Library, cfg)

	assert.Equal(t, "Flat", top.Material.Name)
	assert.Equal(t, "#d9c7a1", top.Material.Color)
	assert.Nil(t, top.Material.Params, "no marble parameters may survive")
	assert.Equal(t, 0.6, top.Material.Roughness)
	assert.Equal(t, 0.1, top.Material.Metalness)
}

func TestApplyIsIdempotent(t *testing.T) {
	cfgs := []Request{
		{Zone: zone.Cabinet, Color: "#6BAA75"},
		{Zone: zone.Countertop, Key: "marble"},
		{Zone: zone.Handle, Key: "steel"},
	}
	cfg := DefaultConfig()
	for _, req := range cfgs {
		cfg = mustSelect(t, cfg, req)
	}

	once, twice := kitchen(), kitchen()
	a := newApplicator()
	r1 := a.ApplyCustomization(once, once.Library, cfg)
	a.ApplyCustomization(twice, twice.Library, cfg)
	r2 := a.ApplyCustomization(twice, twice.Library, cfg)

	assert.Equal(t, r1, r2)
	got, want := snapshot(twice), snapshot(once)
	for name, m := range want {
		assert.True(t, m.SameLook(got[name]), name)
		assert.Equal(t, m.Tag, got[name].Tag, name)
	}
}

func TestApplyResolvedClonesPerNode(t *testing.T) {
	s := kitchen()
	a := newApplicator()
	nodes := s.Renderables()
	m := s.Library["Marble.001"]

	a.ApplyResolved(s, nodes, m)

	seen := make(map[*scene.Material]string)
	for _, n := range nodes {
		assert.NotSame(t, m, n.Material, n.Name)
		if other, dup := seen[n.Material]; dup {
			t.Errorf("%s and %s share a material instance", n.Name, other)
		}
		seen[n.Material] = n.Name
	}

	nodes[0].Material.Params["clearcoat"] = 0.9
	assert.Equal(t, 0.3, nodes[1].Material.Params["clearcoat"])
	assert.Equal(t, 0.3, m.Params["clearcoat"])
}

func TestPaintFlatFreshPerNode(t *testing.T) {
	s := kitchen()
	a := newApplicator()
	nodes := s.Renderables()

	require.NoError(t, a.PaintFlat(s, nodes, "#E6C94C"))
	for i := 1; i < len(nodes); i++ {
		assert.NotSame(t, nodes[0].Material, nodes[i].Material)
		assert.True(t, nodes[0].Material.SameLook(nodes[i].Material))
	}

	assert.Error(t, a.PaintFlat(s, nodes, "mustard"))
	assert.Equal(t, "#e6c94c", nodes[0].Material.Color, "a rejected colour changes nothing")
}

func TestHandleVisibility(t *testing.T) {
	s := kitchen()
	a := newApplicator()
	hide := false

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Handle, HandlesVisible: &hide})
	res := a.ApplyCustomization(s, s.Library, cfg)

	assert.Equal(t, 2, res.Zone(zone.Handle).Matched)
	for _, name := range []string{"Handle_1", "Knopp_2"} {
		n := s.Lookup(name)
		assert.False(t, n.Visible, name)
		require.NotNil(t, n.Material, name)
	}
	assert.Equal(t, "Handle_Default", s.Lookup("Knopp_2").Material.Name)
	assert.Equal(t, "Chrome", s.Lookup("Handle_1").Material.Name)
	assert.True(t, s.Lookup("Cabinet_Door_1").Visible, "only handles are hidden")
}

func TestResetRestoresAuthored(t *testing.T) {
	s := kitchen()
	a := newApplicator()

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Countertop, Key: "marble"})
	a.ApplyCustomization(s, s.Library, cfg)
	cfg = mustSelect(t, cfg, Request{Zone: zone.Countertop, Reset: true})
	a.ApplyCustomization(s, s.Library, cfg)

	top := s.Lookup("Bänkskiva_1")
	assert.Equal(t, "Laminate", top.Material.Name)
	assert.NotSame(t, top.Authored, top.Material)
}

func TestMissingCabinetPartsReported(t *testing.T) {
	s := kitchen()
	res := newApplicator().ApplyCustomization(s, s.Library, DefaultConfig())

	var missing []string
	for _, d := range res.Zone(zone.Cabinet).Diagnostics {
		if errors.Is(d, ErrNotFound) {
			missing = append(missing, d.Subject)
		}
	}
	assert.Contains(t, missing, "Fridge_Panel")
	assert.NotContains(t, missing, "Cabinet_Frame")
}

func TestDirtyHook(t *testing.T) {
	s := kitchen()
	dirty := make(map[string]int)
	s.OnChange = func(n *scene.Node) { dirty[n.Name]++ }

	cfg := mustSelect(t, DefaultConfig(), Request{Zone: zone.Cabinet, Color: "#FFFFFF"})
	newApplicator().ApplyCustomization(s, s.Library, cfg)

	assert.Equal(t, 1, dirty["Cabinet_Door_1"])
	assert.Equal(t, 1, dirty["Cabinet_Frame"])
	assert.Equal(t, 1, dirty["Bänkskiva_1"])
}

func TestSelectRejectsAmbiguousAndBadColour(t *testing.T) {
	cfg := DefaultConfig()

	_, err := cfg.Select(Request{Zone: zone.Cabinet, Color: "#fff", Key: "marble"})
	assert.ErrorIs(t, err, ErrAmbiguousRequest)

	_, err = cfg.Select(Request{Zone: zone.Cabinet, Color: "nope"})
	assert.Error(t, err)

	same, err := cfg.Select(Request{Zone: zone.Cabinet})
	require.NoError(t, err)
	assert.Equal(t, cfg, same)
}

func TestInvalidFlatColourInConfig(t *testing.T) {
	s := kitchen()
	cfg := DefaultConfig()
	cfg.Cabinet = Selection{Mode: ModeFlat, Color: "chartreuse"}

	zr := newApplicator().ApplyCustomization(s, s.Library, cfg).Zone(zone.Cabinet)

	var kinds []string
	for _, d := range zr.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, "invalid")
	assert.Equal(t, "Door_White", s.Lookup("Cabinet_Door_1").Material.Name)
}

func TestCustomCatalog(t *testing.T) {
	cat := material.DefaultCatalog()
	cat.CabinetParts = []string{"Wall_Run"}
	s := kitchen()

	zr := NewFromCatalog(cat, nil).ApplyCustomization(s, s.Library, DefaultConfig()).Zone(zone.Cabinet)

	assert.Equal(t, 0, zr.Matched, "a grouping node is not a cabinet target")
}
