package catalog

import (
	"sort"

	"sales-enrich/internal/errors"
)

// Entry is the reduced per-product record joined onto transactions
type Entry struct {
	Category string
	Brand    string
	Rating   float64
}

// Mapping is the enrichment lookup keyed by product id
type Mapping map[int]Entry

// Size returns the number of entries; it is the modulus of the id remap.
func (m Mapping) Size() int {
	return len(m)
}

// Lookup returns the entry for id
func (m Mapping) Lookup(id int) (Entry, bool) {
	e, ok := m[id]
	return e, ok
}

// IDs returns the mapped ids in ascending order
func (m Mapping) IDs() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// BuildMapping reduces a list or envelope payload to a Mapping.
// Any other shape is a validation error; individual products never fail.
func BuildMapping(p Payload) (Mapping, error) {
	switch p.Kind {
	case PayloadList, PayloadEnvelope:
		return MappingFromProducts(p.Products), nil
	default:
		return nil, errors.Validation("Invalid API product format")
	}
}

// MappingFromProducts skips products without an id; a repeated id keeps the last product.
func MappingFromProducts(products []Product) Mapping {
	m := make(Mapping, len(products))
	for _, prod := range products {
		if prod.ID == nil {
			continue
		}
		m[*prod.ID] = Entry{
			Category: prod.Category,
			Brand:    prod.Brand,
			Rating:   prod.Rating,
		}
	}
	return m
}
