// Package position computes sparse integer ordering keys for sibling lists
// and cards.
//
// A full sequence of N siblings is always written as (i+1)*Step in final
// order. Callers renumber the whole affected sequence after any structural
// change instead of inserting between two existing values, so ties and
// fractional positions never occur.
package position

// Step is the gap between consecutive positions.
const Step = 1000

// ForIndex returns the position of the sibling at index i of a freshly
// renumbered sequence.
func ForIndex(i int) int {
	return (i + 1) * Step
}

// ForAppend returns the position of an item appended after count siblings.
func ForAppend(count int) int {
	return ForIndex(count)
}

// Clamp bounds an insertion index to [0, length].
func Clamp(index, length int) int {
	if index <= 0 {
		return 0
	}
	if index >= length {
		return length
	}
	return index
}

// ForInsert returns the position an item gets when inserted at targetIndex
// into siblings (ordered by position) and the sequence is renumbered.
func ForInsert(siblings []int, targetIndex int) int {
	return ForIndex(Clamp(targetIndex, len(siblings)))
}

// Renumber returns positions for a sequence of n siblings.
func Renumber(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = ForIndex(i)
	}
	return positions
}

// Move returns a copy of items with the element at from moved to to. Both
// indexes are clamped to the valid range.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) == 0 {
		return out
	}

	from = Clamp(from, len(out)-1)
	to = Clamp(to, len(out)-1)
	if from == to {
		return out
	}

	item := out[from]
	out = append(out[:from], out[from+1:]...)
	return Insert(out, to, item)
}

// Insert returns items with item spliced in at index, clamped so that 0
// prepends and anything past the end appends.
func Insert[T any](items []T, index int, item T) []T {
	index = Clamp(index, len(items))
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	return append(out, items[index:]...)
}

// IsDense reports whether positions is exactly a renumbered sequence.
func IsDense(positions []int) bool {
	for i, p := range positions {
		if p != ForIndex(i) {
			return false
		}
	}
	return true
}
