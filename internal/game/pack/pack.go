// Package pack provides the location pack model: named, selectable sets of
// candidate locations loaded from YAML content files.
package pack

import (
	"errors"
	"fmt"
	"strings"
)

// Pack is a named set of candidate locations.
type Pack struct {
	// ID is the stable pack identifier referenced by room settings.
	ID string
	// Name is the human-readable pack name.
	Name string
	// Description summarizes the pack for lobby display.
	Description string
	// Locations are the candidate location names. Order is preserved from
	// the content file.
	Locations []string
}

// Validate checks the pack invariants.
//
// Postcondition: Returns nil if the pack is valid, or an error describing all
// violations.
func (p *Pack) Validate() error {
	var errs []string
	if p.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if p.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if len(p.Locations) == 0 {
		errs = append(errs, "locations must not be empty")
	}
	seen := make(map[string]bool, len(p.Locations))
	for _, loc := range p.Locations {
		if loc == "" {
			errs = append(errs, "location names must not be empty")
			continue
		}
		if seen[loc] {
			errs = append(errs, fmt.Sprintf("duplicate location %q", loc))
		}
		seen[loc] = true
	}
	if len(errs) > 0 {
		return errors.New("pack " + p.ID + ": " + strings.Join(errs, "; "))
	}
	return nil
}
