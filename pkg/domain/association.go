package domain

import (
	"slices"
)

// Association links an object to a mandant.
type Association struct {
	ObjectId  int
	MandantId int
}

// AssociationDelta is the effect of replacing associations of an object.
type AssociationDelta struct {
	ObjectId int

	// mandant ids linked to the object after replacement, ascending.
	Current []int

	// mandant ids newly linked, ascending.
	Added []int

	// mandant ids unlinked, ascending.
	Removed []int
}

// Changed tells whether the replacement has changed anything.
func (d AssociationDelta) Changed() bool {
	return len(d.Added) != 0 || len(d.Removed) != 0
}

// MandantSet is a set of mandant ids.
type MandantSet map[int]struct{}

func NewMandantSet(ids ...int) MandantSet {
	s := MandantSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s MandantSet) Add(id int) {
	s[id] = struct{}{}
}

func (s MandantSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns ids in the set, ascending.
func (s MandantSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
