// Package material turns friendly material keys chosen in the UI into
// concrete scene materials, backed by the model's material library or by
// synthesized placeholders.
package material

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Appearance is the minimal set of shading parameters used for
// synthesized materials.
type Appearance struct {
	Color     string  `yaml:"color" json:"color"`
	Roughness float64 `yaml:"roughness" json:"roughness"`
	Metalness float64 `yaml:"metalness" json:"metalness"`
}

// FlatParams are the fixed shading parameters of flat paint.
type FlatParams struct {
	Roughness float64 `yaml:"roughness" json:"roughness"`
	Metalness float64 `yaml:"metalness" json:"metalness"`
}

// Swatch is a named flat colour offered by the UI.
type Swatch struct {
	Name string `yaml:"name" json:"name"`
	Hex  string `yaml:"hex" json:"hex"`
}

// Option is a raw material offered by the UI.
type Option struct {
	Key     string `yaml:"key" json:"key"`
	Name    string `yaml:"name" json:"name"`
	Preview string `yaml:"preview" json:"preview"`
}

// Catalog is the static material configuration.
type Catalog struct {
	Flat          FlatParams `yaml:"flat"`
	HandleDefault Appearance `yaml:"handle_default"`
	Fallback      Appearance `yaml:"fallback"`

	// Materials maps a friendly key to a library material name. A nil
	// value means there is no authored material for the key.
	Materials map[string]*string `yaml:"materials"`

	Placeholders map[string]Appearance `yaml:"placeholders"`
	CabinetParts []string              `yaml:"cabinet_parts"`
	Palette      []Swatch              `yaml:"palette"`
	Options      []Option              `yaml:"options"`
}

// DefaultCatalog returns a fresh copy of the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("material: built-in catalog is invalid: %v", err))
	}
	return c
}

// ParseCatalog decodes a catalog from YAML without any defaults.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads a user catalog from path and merges it over the
// built-in one. Maps are merged key by key; lists replace the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c := DefaultCatalog()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.normalize(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// normalize lower-cases keys and canonicalises colours.
func (c *Catalog) normalize() error {
	materials := make(map[string]*string, len(c.Materials))
	for k, v := range c.Materials {
		if v != nil && strings.TrimSpace(*v) == "" {
			v = nil
		}
		materials[normalizeKey(k)] = v
	}
	c.Materials = materials

	placeholders := make(map[string]Appearance, len(c.Placeholders))
	for k, a := range c.Placeholders {
		hex, err := CanonicalColor(a.Color)
		if err != nil {
			return fmt.Errorf("placeholder %q: %w", k, err)
		}
		a.Color = hex
		placeholders[normalizeKey(k)] = a
	}
	c.Placeholders = placeholders

	for _, a := range []*Appearance{&c.HandleDefault, &c.Fallback} {
		hex, err := CanonicalColor(a.Color)
		if err != nil {
			return err
		}
		a.Color = hex
	}
	for i, s := range c.Palette {
		if _, err := CanonicalColor(s.Hex); err != nil {
			return fmt.Errorf("palette %q: %w", s.Name, err)
		}
		c.Palette[i].Hex = strings.ToUpper(s.Hex)
	}
	for i := range c.Options {
		c.Options[i].Key = normalizeKey(c.Options[i].Key)
	}
	return nil
}

// LibraryName returns the library material name mapped from key. ok is
// false when the key is unknown or explicitly mapped to nothing.
func (c *Catalog) LibraryName(key string) (name string, ok bool) {
	v, found := c.Materials[normalizeKey(key)]
	if !found || v == nil {
		return "", false
	}
	return *v, true
}

// CanonicalColor validates a #rgb or #rrggbb colour and returns it as
// lower-case #rrggbb.
func CanonicalColor(s string) (string, error) {
	col, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return col.Hex(), nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
