package mandantsync

import (
	"errors"
	"fmt"
	"slices"

	"github.com/heatcare/heatcare/pkg/domain"
)

// ErrAmbiguousName is returned when a name resolves to two or more mandants under the policy Error.
var ErrAmbiguousName = errors.New("ambiguous mandant name")

// Directory resolves mandant names to mandant ids.
type Directory struct {
	policy  ConflictPolicy
	entries map[string][]int
}

// Collision is a name shared by two or more mandants.
type Collision struct {
	// lower-cased name
	Key string

	// ids of mandants having the name, ascending.
	MandantIds []int

	// ids the name resolves to.
	//
	// Empty under the policy Error.
	Chosen []int
}

// NewDirectory builds Directory of mandants.
//
// Mandants with blank names are not registered.
//
// # Returns
//
// - Directory
//
// - []Collision: names shared by mandants, sorted by key.
func NewDirectory(mandants []domain.Mandant, policy ConflictPolicy) (Directory, []Collision) {
	sorted := slices.Clone(mandants)
	slices.SortFunc(sorted, func(a, b domain.Mandant) int { return a.Id - b.Id })

	all := map[string][]int{}
	for _, m := range sorted {
		key := domain.NameKey(m.Name)
		if key == "" {
			continue
		}
		if ids := all[key]; len(ids) != 0 && ids[len(ids)-1] == m.Id {
			continue
		}
		all[key] = append(all[key], m.Id)
	}

	entries := make(map[string][]int, len(all))
	collisions := []Collision{}
	for key, ids := range all {
		chosen := ids
		if 1 < len(ids) {
			switch policy {
			case FirstWins:
				chosen = ids[:1]
			case LastWins:
				chosen = ids[len(ids)-1:]
			case Error:
				chosen = []int{}
			}
			collisions = append(collisions, Collision{Key: key, MandantIds: ids, Chosen: chosen})
		}
		entries[key] = ids
		if policy != Error {
			entries[key] = chosen
		}
	}
	slices.SortFunc(collisions, func(a, b Collision) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})

	return Directory{policy: policy, entries: entries}, collisions
}

// Resolve returns ids of mandants named name, case-insensitively.
//
// Unknown names resolve to no ids without error.
// Under the policy Error, names shared by mandants cause ErrAmbiguousName.
func (d Directory) Resolve(name string) ([]int, error) {
	ids := d.entries[domain.NameKey(name)]
	if d.policy == Error && 1 < len(ids) {
		return nil, fmt.Errorf("%w: %q is the name of mandants %v", ErrAmbiguousName, name, ids)
	}
	return ids, nil
}

// Len returns how many names are registered.
func (d Directory) Len() int {
	return len(d.entries)
}
