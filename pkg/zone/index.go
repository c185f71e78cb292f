package zone

import (
	"log/slog"

	"github.com/chazu/kitchenkit/pkg/scene"
)

// Predicate tests a normalised node name.
type Predicate func(normalized string) bool

// FindExact looks up each name in order and returns the renderable matches
// in the order of names. Missing and non-renderable names are skipped;
// exported models routinely lack some cabinet parts.
func FindExact(s *scene.Scene, names []string) []*scene.Node {
	nodes, _ := findExact(s, names)
	return nodes
}

func findExact(s *scene.Scene, names []string) (nodes []*scene.Node, missing []string) {
	seen := make(map[*scene.Node]bool)
	for _, name := range names {
		n := s.Lookup(name)
		if n == nil || !n.Renderable {
			missing = append(missing, name)
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		nodes = append(nodes, n)
	}
	return nodes, missing
}

// FindFuzzy walks the whole scene once, in the scene's deterministic
// traversal order, and returns the renderable nodes whose normalised name
// satisfies pred.
func FindFuzzy(s *scene.Scene, pred Predicate) []*scene.Node {
	var nodes []*scene.Node
	s.Walk(func(n *scene.Node) bool {
		if n.Renderable && pred(Normalize(n.Name)) {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// Targets is the partition of a scene's renderable nodes into zones.
// A node appears in at most one zone.
type Targets struct {
	Cabinet    []*scene.Node
	Countertop []*scene.Node
	Handle     []*scene.Node

	// MissingCabinetParts lists configured cabinet names that had no
	// renderable match.
	MissingCabinetParts []string
}

// For returns the nodes of zone z.
func (t Targets) For(z Zone) []*scene.Node {
	switch z {
	case Cabinet:
		return t.Cabinet
	case Countertop:
		return t.Countertop
	case Handle:
		return t.Handle
	}
	return nil
}

// Index classifies scene nodes into zones. Cabinet parts are found by the
// configured exact names; countertops and handles by name heuristics.
// Nodes tagged with a zone at authoring time bypass the heuristics.
type Index struct {
	cabinetNames []string
	logger       *slog.Logger
}

// NewIndex creates an Index for the given cabinet part names.
// A nil logger means slog.Default().
func NewIndex(cabinetNames []string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		cabinetNames: append([]string(nil), cabinetNames...),
		logger:       logger,
	}
}

// CabinetNames returns the exact names used for the cabinet zone.
func (ix *Index) CabinetNames() []string {
	return append([]string(nil), ix.cabinetNames...)
}

// Targets computes the zone partition of s from scratch. Precedence for a
// node matching several zones: explicit tag, cabinet name, countertop,
// handle.
func (ix *Index) Targets(s *scene.Scene) Targets {
	var t Targets
	claimed := make(map[*scene.Node]bool)

	claim := func(dst *[]*scene.Node, nodes []*scene.Node) {
		for _, n := range nodes {
			if claimed[n] {
				continue
			}
			claimed[n] = true
			*dst = append(*dst, n)
		}
	}

	var tagged [3][]*scene.Node
	s.Walk(func(n *scene.Node) bool {
		if !n.Renderable || n.Tag == "" {
			return true
		}
		z, err := Parse(n.Tag)
		if err != nil {
			ix.logger.Debug("Ignoring unknown zone tag",
				slog.String("node", n.Name), slog.String("tag", n.Tag))
			return true
		}
		tagged[z] = append(tagged[z], n)
		return true
	})
	claim(&t.Cabinet, tagged[Cabinet])
	claim(&t.Countertop, tagged[Countertop])
	claim(&t.Handle, tagged[Handle])

	exact, missing := findExact(s, ix.cabinetNames)
	claim(&t.Cabinet, exact)
	t.MissingCabinetParts = missing
	if len(missing) > 0 {
		ix.logger.Debug("Cabinet parts not found", slog.Any("names", missing))
	}

	claim(&t.Countertop, FindFuzzy(s, IsCountertop))
	claim(&t.Handle, FindFuzzy(s, IsHandle))

	for _, z := range All {
		if len(t.For(z)) == 0 {
			ix.logger.Info("No nodes matched zone", slog.String("zone", z.String()))
		}
	}
	return t
}

// Find returns the nodes of a single zone. It computes the full partition
// so that the result agrees with Targets.
func (ix *Index) Find(s *scene.Scene, z Zone) []*scene.Node {
	return ix.Targets(s).For(z)
}
