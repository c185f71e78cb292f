// Package apply assigns materials to the nodes of each kitchen zone.
//
// Every assignment hands the node a private material instance, so nodes
// never share a material with each other or with the library. A pass
// assigns each matched node exactly once; there is no second pass that
// fixes up nodes by material name.
package apply

import (
	"fmt"
	"log/slog"

	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/scene"
	"github.com/chazu/kitchenkit/pkg/zone"
)

// Applicator applies a Config to a scene.
type Applicator struct {
	index    *zone.Index
	resolver *material.Resolver
	logger   *slog.Logger
}

// New creates an Applicator. A nil logger means slog.Default().
func New(index *zone.Index, resolver *material.Resolver, logger *slog.Logger) *Applicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applicator{index: index, resolver: resolver, logger: logger}
}

// NewFromCatalog wires an Index and a Resolver from a catalog. A nil
// catalog means material.DefaultCatalog().
func NewFromCatalog(catalog *material.Catalog, logger *slog.Logger) *Applicator {
	if catalog == nil {
		catalog = material.DefaultCatalog()
	}
	return New(
		zone.NewIndex(catalog.CabinetParts, logger),
		material.NewResolver(catalog, logger),
		logger,
	)
}

// Index returns the zone index used by the applicator.
func (a *Applicator) Index() *zone.Index {
	return a.index
}

// Resolver returns the material resolver used by the applicator.
func (a *Applicator) Resolver() *material.Resolver {
	return a.resolver
}

// PaintFlat gives every node its own new flat material of the given colour.
func (a *Applicator) PaintFlat(s *scene.Scene, nodes []*scene.Node, color string) error {
	for _, n := range nodes {
		m, err := a.resolver.Flat(color)
		if err != nil {
			return fmt.Errorf("paint %s: %w", n.Name, err)
		}
		n.Material = m
		s.MarkDirty(n)
	}
	return nil
}

// ApplyResolved gives every node its own clone of m. m itself is never
// assigned, so per-node tweaks cannot leak between nodes.
func (a *Applicator) ApplyResolved(s *scene.Scene, nodes []*scene.Node, m *scene.Material) {
	for _, n := range nodes {
		c := m.Clone()
		c.Tag = m.Tag + "_for_" + n.Name
		n.Material = c
		s.MarkDirty(n)
	}
}

// SetHandleVisibility shows or hides handle nodes. A handle without a
// material first receives the default handle material.
func (a *Applicator) SetHandleVisibility(s *scene.Scene, nodes []*scene.Node, visible bool) {
	for _, n := range nodes {
		changed := false
		if n.Material == nil {
			n.Material = a.resolver.HandleDefault()
			changed = true
		}
		if n.Visible != visible {
			n.Visible = visible
			changed = true
		}
		if changed {
			s.MarkDirty(n)
		}
	}
}

// restoreAuthored gives every node a clone of the material it was loaded
// with.
func (a *Applicator) restoreAuthored(s *scene.Scene, nodes []*scene.Node) {
	for _, n := range nodes {
		n.Material = n.Authored.Clone()
		s.MarkDirty(n)
	}
}

// ApplyCustomization brings every zone of s in line with cfg. Missing
// nodes and materials degrade to placeholders or no-ops and are reported
// in the result; it never fails.
func (a *Applicator) ApplyCustomization(s *scene.Scene, lib scene.Library, cfg Config) Result {
	targets := a.index.Targets(s)

	var res Result
	for _, z := range zone.All {
		zr := a.applyZone(s, lib, z, targets.For(z), cfg.For(z))
		if z == zone.Cabinet {
			for _, name := range targets.MissingCabinetParts {
				zr.Diagnostics = append(zr.Diagnostics, newDiagnostic(z, ErrNotFound, name))
			}
		}
		if z == zone.Handle {
			a.SetHandleVisibility(s, targets.Handle, cfg.HandlesVisible)
		}
		for _, d := range zr.Diagnostics {
			a.logger.Info("Customization degraded",
				slog.String("zone", z.String()),
				slog.String("kind", d.Kind),
				slog.String("subject", d.Subject))
		}
		res.Zones = append(res.Zones, zr)
	}
	return res
}

func (a *Applicator) applyZone(s *scene.Scene, lib scene.Library, z zone.Zone, nodes []*scene.Node, sel Selection) ZoneResult {
	zr := ZoneResult{Zone: z, Mode: sel.Mode, Matched: len(nodes)}
	if len(nodes) == 0 {
		zr.Diagnostics = append(zr.Diagnostics, newDiagnostic(z, ErrEmptyMatch, ""))
		return zr
	}

	switch sel.Mode {
	case ModeDefault:
		a.restoreAuthored(s, nodes)

	case ModeFlat:
		if err := a.PaintFlat(s, nodes, sel.Color); err != nil {
			zr.Diagnostics = append(zr.Diagnostics, newDiagnostic(z, err, sel.Color))
		}

	case ModeMaterial:
		m, placeholder := a.resolver.Resolve(sel.Key, lib)
		a.ApplyResolved(s, nodes, m)
		zr.UsedPlaceholder = placeholder
		if placeholder {
			subject := sel.Key
			if name, ok := a.resolver.Catalog().LibraryName(sel.Key); ok {
				subject = name
			}
			zr.Diagnostics = append(zr.Diagnostics, newDiagnostic(z, ErrNotFound, subject))
		}
	}
	return zr
}
