package material

import (
	"log/slog"

	"github.com/chazu/kitchenkit/pkg/scene"
)

// Resolver resolves friendly keys against a catalog.
type Resolver struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewResolver creates a Resolver. A nil catalog means DefaultCatalog();
// a nil logger means slog.Default().
func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Catalog returns the resolver's catalog.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve returns a material for key. The result is always a new
// instance owned by the caller, never an entry of lib.
//
// A key mapped to a library entry present in lib yields a clone of that
// entry. A key that is itself a library entry name also yields a clone.
// Anything else yields a placeholder, in which case placeholder is true.
func (r *Resolver) Resolve(key string, lib scene.Library) (m *scene.Material, placeholder bool) {
	if name, ok := r.catalog.LibraryName(key); ok {
		if src, ok := lib.Get(name); ok {
			return libraryClone(src, name), false
		}
		r.logger.Info("Library material not found, using placeholder",
			slog.String("key", key), slog.String("library_name", name))
		return r.Placeholder(key), true
	}
	if src, ok := lib.Get(key); ok {
		return libraryClone(src, key), false
	}
	r.logger.Info("No library material for key, using placeholder", slog.String("key", key))
	return r.Placeholder(key), true
}

func libraryClone(src *scene.Material, name string) *scene.Material {
	m := src.Clone()
	m.Tag = "Raw_" + name
	return m
}

// Placeholder synthesizes the stand-in material for key from the
// placeholder table, falling back to neutral grey.
func (r *Resolver) Placeholder(key string) *scene.Material {
	a, ok := r.catalog.Placeholders[normalizeKey(key)]
	if !ok {
		a = r.catalog.Fallback
	}
	return &scene.Material{
		Name:      "Placeholder_" + key,
		Tag:       "Placeholder_" + key,
		Color:     a.Color,
		Roughness: a.Roughness,
		Metalness: a.Metalness,
		Opacity:   1,
	}
}

// Flat returns a new flat-paint material of the given colour.
func (r *Resolver) Flat(color string) (*scene.Material, error) {
	hex, err := CanonicalColor(color)
	if err != nil {
		return nil, err
	}
	return &scene.Material{
		Name:      "Flat",
		Tag:       "Flat_" + hex,
		Color:     hex,
		Roughness: r.catalog.Flat.Roughness,
		Metalness: r.catalog.Flat.Metalness,
		Opacity:   1,
	}, nil
}

// HandleDefault returns a new dark metallic material for handles that
// have none.
func (r *Resolver) HandleDefault() *scene.Material {
	a := r.catalog.HandleDefault
	return &scene.Material{
		Name:      "Handle_Default",
		Tag:       "Handle_Default",
		Color:     a.Color,
		Roughness: a.Roughness,
		Metalness: a.Metalness,
		Opacity:   1,
	}
}
