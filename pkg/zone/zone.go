// Package zone locates the scene nodes that belong to each customization
// zone of the kitchen: cabinet parts by their exact names, countertop and
// handle parts by fuzzy matching on normalised names.
package zone

import (
	"fmt"
	"strings"
)

// Zone is a customization axis of the kitchen.
type Zone int

const (
	Cabinet    Zone = iota // doors, frame, fridge panel, island
	Countertop             // worktop surfaces
	Handle                 // handles, knobs, pulls
)

// All lists the zones in the order they are applied.
var All = []Zone{Cabinet, Countertop, Handle}

func (z Zone) String() string {
	switch z {
	case Cabinet:
		return "cabinet"
	case Countertop:
		return "countertop"
	case Handle:
		return "handle"
	default:
		return fmt.Sprintf("Zone(%d)", int(z))
	}
}

// Parse converts a zone name ("cabinet", "countertop", "handle") to a Zone.
// "surface" is accepted as an alias for the countertop.
func Parse(s string) (Zone, error) {
	switch Normalize(strings.TrimSpace(s)) {
	case "cabinet", "cabinets":
		return Cabinet, nil
	case "countertop", "surface":
		return Countertop, nil
	case "handle", "handles":
		return Handle, nil
	}
	return 0, fmt.Errorf("unknown zone %q, expected cabinet, countertop or handle", s)
}

// MarshalText implements encoding.TextMarshaler so zones read as names in
// JSON and YAML.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (z *Zone) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// countertopVariants are normalised spellings of "countertop" seen in
// exported kitchen models, misspellings included.
var countertopVariants = []string{
	"bankskiva",
	"bankskivan",
	"bank_skiva",
	"bank skiva",
	"bankskifva",
	"banskiva",
	"benkskiva",
	"benkeplate",
	"benkplate",
	"bordplade",
	"countertop",
	"counter_top",
	"counter-top",
	"counter top",
	"worktop",
	"work_top",
}

// handleTokens are normalised words for handles, knobs and pulls.
var handleTokens = []string{
	"handle",
	"handtag",
	"handtak",
	"handgreb",
	"knob",
	"knopp",
	"pull",
	"grepp",
	"greb",
	"griff",
}

// IsCountertop reports whether a normalised name looks like a countertop.
// Besides the known spellings it accepts any name containing "o_" together
// with "bank"/"benk"; this catches names like "Mesh_o_Bank_2" and is known
// to produce the occasional false positive.
func IsCountertop(normalized string) bool {
	if containsAny(normalized, countertopVariants) {
		return true
	}
	return strings.Contains(normalized, "o_") &&
		(strings.Contains(normalized, "bank") || strings.Contains(normalized, "benk"))
}

// IsHandle reports whether a normalised name looks like a handle.
func IsHandle(normalized string) bool {
	return containsAny(normalized, handleTokens)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
