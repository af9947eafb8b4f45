package vm

import (
	"fmt"

	"greyvm/internal/value"
)

// Iterator advances a for loop.
type Iterator interface {
	Next() (v value.Value, index int, ok bool)
}

// lists are walked by live index, so appending inside the loop extends it
type listIterator struct {
	list *value.List
	i    int
}

func (it *listIterator) Next() (value.Value, int, bool) {
	if it.i >= it.list.Len() {
		return value.Null, it.i, false
	}
	v := it.list.Items[it.i]
	it.i++
	return v, it.i - 1, true
}

// sliceIterator walks a snapshot taken when the loop started.
type sliceIterator struct {
	items []value.Value
	i     int
}

func (it *sliceIterator) Next() (value.Value, int, bool) {
	if it.i >= len(it.items) {
		return value.Null, it.i, false
	}
	v := it.items[it.i]
	it.i++
	return v, it.i - 1, true
}

func newIterator(v value.Value) (Iterator, error) {
	switch v.Kind {
	case value.KindList:
		return &listIterator{list: v.List}, nil
	case value.KindMap:
		entries := v.Map.Entries()
		items := make([]value.Value, len(entries))
		for i, e := range entries {
			items[i] = value.FromMap(value.MapFrom(
				value.Str("key"), e.Key,
				value.Str("value"), e.Value,
			))
		}
		return &sliceIterator{items: items}, nil
	case value.KindString:
		runes := []rune(v.Str)
		items := make([]value.Value, len(runes))
		for i, r := range runes {
			items[i] = value.Str(string(r))
		}
		return &sliceIterator{items: items}, nil
	case value.KindNil:
		return &sliceIterator{}, nil
	}
	return nil, fmt.Errorf("cannot iterate over %s", v.TypeName())
}
