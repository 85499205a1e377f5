package util

type Set[T comparable] struct {
	elements map[T]struct{}
}

func NewSet[T comparable](elements ...T) *Set[T] {
	s := &Set[T]{
		elements: make(map[T]struct{}, len(elements)),
	}
	for _, elem := range elements {
		s.elements[elem] = struct{}{}
	}
	return s
}

func (set *Set[T]) Union(other *Set[T]) *Set[T] {
	union := make(map[T]struct{}, len(set.elements)+len(other.elements))
	for elem := range set.elements {
		union[elem] = struct{}{}
	}
	for elem := range other.elements {
		union[elem] = struct{}{}
	}
	return &Set[T]{
		elements: union,
	}
}

// Add inserts elem and reports whether it was new.
func (set *Set[T]) Add(elem T) bool {
	if _, ok := set.elements[elem]; ok {
		return false
	}
	set.elements[elem] = struct{}{}
	return true
}

func (set *Set[T]) Contains(elem T) bool {
	_, ok := set.elements[elem]
	return ok
}

func (set *Set[T]) Len() int {
	return len(set.elements)
}
