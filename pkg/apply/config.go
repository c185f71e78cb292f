package apply

import (
	"errors"
	"fmt"

	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/zone"
)

// Mode is the paint mode of a zone.
type Mode int

const (
	ModeDefault  Mode = iota // as authored in the model
	ModeFlat                 // flat paint colour
	ModeMaterial             // named raw material
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeFlat:
		return "flat"
	case ModeMaterial:
		return "material"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "default", "":
		*m = ModeDefault
	case "flat":
		*m = ModeFlat
	case "material":
		*m = ModeMaterial
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}

// Selection is the current choice for one zone. Only the field matching
// Mode is set.
type Selection struct {
	Mode  Mode   `json:"mode"`
	Color string `json:"color,omitempty"`
	Key   string `json:"key,omitempty"`
}

// Config is the complete customization state of the kitchen: one
// selection per zone plus handle visibility. It is a plain value; the
// host keeps the current one and passes it to ApplyCustomization.
type Config struct {
	Cabinet        Selection `json:"cabinet"`
	Countertop     Selection `json:"countertop"`
	Handle         Selection `json:"handle"`
	HandlesVisible bool      `json:"handlesVisible"`
}

// DefaultConfig shows the model as authored, handles visible.
func DefaultConfig() Config {
	return Config{HandlesVisible: true}
}

// For returns the selection of zone z.
func (c Config) For(z zone.Zone) Selection {
	switch z {
	case zone.Cabinet:
		return c.Cabinet
	case zone.Countertop:
		return c.Countertop
	case zone.Handle:
		return c.Handle
	}
	return Selection{}
}

func (c *Config) set(z zone.Zone, sel Selection) {
	switch z {
	case zone.Cabinet:
		c.Cabinet = sel
	case zone.Countertop:
		c.Countertop = sel
	case zone.Handle:
		c.Handle = sel
	}
}

// Request is a single user choice coming from the selection UI.
type Request struct {
	Zone  zone.Zone `json:"zone"`
	Color string    `json:"color,omitempty"`
	Key   string    `json:"key,omitempty"`

	// Reset returns the zone to its authored look.
	Reset bool `json:"reset,omitempty"`

	// HandlesVisible, when set, changes handle visibility.
	HandlesVisible *bool `json:"handlesVisible,omitempty"`
}

// ErrAmbiguousRequest is returned for a request carrying both a colour and
// a material key.
var ErrAmbiguousRequest = errors.New("request sets both color and key")

// Select returns c updated with req. Choosing a colour replaces any
// material key of the zone and vice versa; the displaced choice is not
// remembered. A request with neither colour, key nor reset leaves the
// zone's selection alone.
func (c Config) Select(req Request) (Config, error) {
	switch {
	case req.Color != "" && req.Key != "":
		return c, ErrAmbiguousRequest
	case req.Reset:
		c.set(req.Zone, Selection{Mode: ModeDefault})
	case req.Color != "":
		hex, err := material.CanonicalColor(req.Color)
		if err != nil {
			return c, err
		}
		c.set(req.Zone, Selection{Mode: ModeFlat, Color: hex})
	case req.Key != "":
		c.set(req.Zone, Selection{Mode: ModeMaterial, Key: req.Key})
	}
	if req.HandlesVisible != nil {
		c.HandlesVisible = *req.HandlesVisible
	}
	return c, nil
}
