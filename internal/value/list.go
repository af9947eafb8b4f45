package value

type List struct {
	Items []Value
}

func NewList(items ...Value) *List {
	return &List{Items: items}
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *List) Append(v ...Value) {
	l.Items = append(l.Items, v...)
}

// Fork returns a shallow copy.
func (l *List) Fork() *List {
	items := make([]Value, len(l.Items))
	copy(items, l.Items)
	return &List{Items: items}
}

// NormalizeIndex maps a possibly negative index onto [0, n).
func NormalizeIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// SliceBounds clamps [low, high) the way slicing does: negative bounds
// count from the end and null means the corresponding end of the sequence.
func SliceBounds(low, high Value, n int) (int, int) {
	from, to := 0, n
	if !low.IsNull() {
		from = low.ToInt()
		if from < 0 {
			from += n
		}
	}
	if !high.IsNull() {
		to = high.ToInt()
		if to < 0 {
			to += n
		}
	}
	from = min(max(from, 0), n)
	to = min(max(to, 0), n)
	if from > to {
		from = to
	}
	return from, to
}
