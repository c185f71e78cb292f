package apply

import (
	"errors"
	"fmt"

	"github.com/chazu/kitchenkit/pkg/zone"
)

var (
	// ErrNotFound marks a cabinet part or library material that does not
	// exist. The zone carries on without it.
	ErrNotFound = errors.New("not found")

	// ErrEmptyMatch marks a zone with no matching nodes. Nothing is
	// changed for it.
	ErrEmptyMatch = errors.New("no matching nodes")
)

// Diagnostic records a degraded outcome. It never aborts an apply pass.
type Diagnostic struct {
	Zone    zone.Zone `json:"zone"`
	Kind    string    `json:"kind"`
	Subject string    `json:"subject,omitempty"`
	err     error
}

func newDiagnostic(z zone.Zone, err error, subject string) Diagnostic {
	kind := "invalid"
	switch {
	case errors.Is(err, ErrNotFound):
		kind = "not_found"
	case errors.Is(err, ErrEmptyMatch):
		kind = "empty_match"
	}
	return Diagnostic{Zone: z, Kind: kind, Subject: subject, err: err}
}

func (d Diagnostic) Error() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %v", d.Zone, d.err)
	}
	return fmt.Sprintf("%s: %q %v", d.Zone, d.Subject, d.err)
}

// Unwrap allows errors.Is(d, ErrNotFound).
func (d Diagnostic) Unwrap() error {
	return d.err
}

// ZoneResult summarises what happened to one zone.
type ZoneResult struct {
	Zone            zone.Zone    `json:"zone"`
	Mode            Mode         `json:"mode"`
	Matched         int          `json:"matched"`
	UsedPlaceholder bool         `json:"usedPlaceholder"`
	Diagnostics     []Diagnostic `json:"diagnostics,omitempty"`
}

// Result reports every zone in zone.All order.
type Result struct {
	Zones []ZoneResult `json:"zones"`
}

// Zone returns the result for z.
func (r Result) Zone(z zone.Zone) ZoneResult {
	for _, zr := range r.Zones {
		if zr.Zone == z {
			return zr
		}
	}
	return ZoneResult{Zone: z}
}

// Diagnostics returns the diagnostics of all zones.
func (r Result) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, zr := range r.Zones {
		out = append(out, zr.Diagnostics...)
	}
	return out
}
