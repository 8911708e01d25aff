package pack

import "fmt"

// Catalog provides read-only access to the loaded packs. It indexes packs by
// ID and locations back to the first pack that contains them. Catalogs are
// immutable after construction and safe for concurrent use.
type Catalog struct {
	order     []string
	packs     map[string]*Pack
	locOwner  map[string]string
	defaultID string
}

// NewCatalog creates a Catalog from the given packs. The first pack in the
// slice becomes the default selection for new rooms.
//
// Precondition: packs must contain at least one validated pack.
// Postcondition: Returns a Catalog with all packs indexed by ID, or an error
// on duplicate pack IDs.
func NewCatalog(packs []*Pack) (*Catalog, error) {
	if len(packs) == 0 {
		return nil, fmt.Errorf("catalog requires at least one pack")
	}
	c := &Catalog{
		packs:    make(map[string]*Pack, len(packs)),
		locOwner: make(map[string]string),
	}
	for _, p := range packs {
		if _, exists := c.packs[p.ID]; exists {
			return nil, fmt.Errorf("duplicate pack ID: %q", p.ID)
		}
		c.packs[p.ID] = p
		c.order = append(c.order, p.ID)
		for _, loc := range p.Locations {
			// A location may appear in several packs; the first wins.
			if _, ok := c.locOwner[loc]; !ok {
				c.locOwner[loc] = p.ID
			}
		}
	}
	c.defaultID = packs[0].ID
	return c, nil
}

// DefaultID returns the pack selected for rooms that have not chosen any.
func (c *Catalog) DefaultID() string {
	return c.defaultID
}

// Get returns the pack with the given ID.
//
// Postcondition: Returns (pack, true) if found, or (nil, false) otherwise.
func (c *Catalog) Get(id string) (*Pack, bool) {
	p, ok := c.packs[id]
	return p, ok
}

// IDs returns all pack IDs in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// FilterValid returns the subset of ids that name known packs, preserving
// input order. An empty result means the caller should fall back to the
// default pack.
func (c *Catalog) FilterValid(ids []string) []string {
	var valid []string
	for _, id := range ids {
		if _, ok := c.packs[id]; ok {
			valid = append(valid, id)
		}
	}
	return valid
}

// LocationsFor returns the concatenated location lists of the given packs in
// catalog-file order. Unknown IDs are skipped.
//
// Postcondition: Returns a fresh slice; mutating it does not affect the
// catalog.
func (c *Catalog) LocationsFor(ids []string) []string {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	var locations []string
	for _, id := range c.order {
		if !selected[id] {
			continue
		}
		locations = append(locations, c.packs[id].Locations...)
	}
	return locations
}

// PackForLocation returns the ID of the first pack containing the location.
//
// Postcondition: Returns ("", false) when no pack contains loc.
func (c *Catalog) PackForLocation(loc string) (string, bool) {
	id, ok := c.locOwner[loc]
	return id, ok
}

// PackCount returns the number of loaded packs.
func (c *Catalog) PackCount() int {
	return len(c.packs)
}
