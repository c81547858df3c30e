package product

import (
	"fmt"
	"sort"
)

var sizeRank = map[string]int{"XS": 0, "S": 1, "M": 2, "L": 3, "XL": 4, "XXL": 5}

// SizeStock is the per-size inventory of a product. The key set is fixed when
// the product is defined; quantities never go below zero.
type SizeStock map[string]int

// Get returns 0 for a size the product does not carry.
func (s SizeStock) Get(size string) int {
	return s[size]
}

func (s SizeStock) Has(size string) bool {
	_, ok := s[size]
	return ok
}

// Set refuses sizes outside the key set and clamps negatives to 0.
func (s SizeStock) Set(size string, qty int) error {
	if !s.Has(size) {
		return fmt.Errorf("%w: %s", ErrUnknownSize, size)
	}
	if qty < 0 {
		qty = 0
	}
	s[size] = qty
	return nil
}

// Sizes lists the keys in garment order; unrecognized labels sort last.
func (s SizeStock) Sizes() []string {
	out := make([]string, 0, len(s))
	for size := range s {
		out = append(out, size)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := sizeRank[out[i]]
		rj, jok := sizeRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func (s SizeStock) Clone() SizeStock {
	out := make(SizeStock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
