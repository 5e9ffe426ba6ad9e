// Package cmp provides comparison helpers for tests.
package cmp

// BiPredicator tells whether a and b are equivalent.
type BiPredicator[A any, B any] func(a A, b B) bool

// EqEq is `a == b` as a BiPredicator.
func EqEq[T comparable](a, b T) bool {
	return a == b
}

// SliceEq checks two slices have the same elements in the same order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, EqEq[T])
}

func SliceEqWith[A any, B any](a []A, b []B, pred BiPredicator[A, B]) bool {
	if len(a) != len(b) {
		return false
	}
	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}
	return true
}

// SliceContentEq checks two slices are equal as bags (multi-sets).
//
//	SliceContentEq([]int{1, 2, 3}, []int{3, 2, 1})     // => true
//	SliceContentEq([]int{1, 2, 2}, []int{1, 2})        // => false
//	SliceContentEq([]int{1, 2, 2}, []int{2, 1, 2})     // => true
func SliceContentEq[T comparable](a, b []T) bool {
	return SliceContentEqWith(a, b, EqEq[T])
}

// SliceContentEqWith is SliceContentEq with an equivalence of your own.
func SliceContentEqWith[A, B any](a []A, b []B, equiv BiPredicator[A, B]) bool {
	if len(a) != len(b) {
		return false
	}

	rest := make(map[int]*B, len(b))
	for i := range b {
		rest[i] = &b[i]
	}

NEXT_A:
	for _, va := range a {
		for k, vb := range rest {
			if equiv(va, *vb) {
				delete(rest, k)
				continue NEXT_A
			}
		}
		return false
	}

	return len(rest) == 0
}

// MapEq checks two maps have the same keys with the same values.
func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	return MapEqWith(a, b, EqEq[V])
}

func MapEqWith[K comparable, V any, U any](a map[K]V, b map[K]U, pred BiPredicator[V, U]) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !pred(va, vb) {
			return false
		}
	}
	return true
}
