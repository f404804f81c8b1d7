package utils

import (
	"cmp"
	"slices"
)

// OrderedList is a sorted list without duplicates
type OrderedList[T cmp.Ordered] struct {
	list []T
}

func NewOrderedList[T cmp.Ordered]() *OrderedList[T] {
	return &OrderedList[T]{
		list: make([]T, 0),
	}
}

func (o *OrderedList[T]) Len() int {
	return len(o.list)
}

// Contains reports whether item is in the list
func (o *OrderedList[T]) Contains(item T) bool {
	_, found := slices.BinarySearch(o.list, item)
	return found
}

// Insert adds item to the list and reports whether it was not already present
func (o *OrderedList[T]) Insert(item T) bool {
	i, found := slices.BinarySearch(o.list, item)
	if found {
		return false
	}
	// Make room for new value and add it
	o.list = append(o.list, *new(T))
	copy(o.list[i+1:], o.list[i:])
	o.list[i] = item
	return true
}

// Items returns the underlying list
// take care of the returned list
func (o *OrderedList[T]) Items() []T {
	return o.list
}
