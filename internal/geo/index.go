package geo

import "strings"

// Zone is one entry of the zone index.
type Zone struct {
	ID      string `json:"zone_id"`
	Name    string `json:"zone_name"`
	Borough string `json:"borough"`
}

// Index is the ordered, immutable zone list built from the boundary document.
type Index struct {
	zones []Zone
	byID  map[string]int
}

// NewIndex derives the index from a boundary document, preserving feature order.
func NewIndex(fc *FeatureCollection) *Index {
	idx := &Index{byID: make(map[string]int)}
	if fc == nil {
		return idx
	}
	for _, f := range fc.Features {
		z := Zone{
			ID:      string(f.Properties.LocationID),
			Name:    strings.TrimSpace(f.Properties.Zone),
			Borough: strings.TrimSpace(f.Properties.Borough),
		}
		if _, dup := idx.byID[z.ID]; !dup {
			idx.byID[z.ID] = len(idx.zones)
		}
		idx.zones = append(idx.zones, z)
	}
	return idx
}

// Zones returns a copy of the ordered zones.
func (i *Index) Zones() []Zone {
	out := make([]Zone, len(i.zones))
	copy(out, i.zones)
	return out
}

// Len returns the number of zones.
func (i *Index) Len() int { return len(i.zones) }

// At returns the zone at position n.
func (i *Index) At(n int) Zone { return i.zones[n] }

// Lookup finds a zone by id.
func (i *Index) Lookup(id string) (Zone, bool) {
	n, ok := i.byID[id]
	if !ok {
		return Zone{}, false
	}
	return i.zones[n], true
}
