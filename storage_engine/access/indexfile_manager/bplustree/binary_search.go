package bplus

// lowerBound returns the first index whose key is >= target.
func (t *BPlusTree) lowerBound(keys [][]byte, target []byte) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if t.cmp(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the first index whose key is > target, which is also
// the child of an internal node whose range holds target.
func (t *BPlusTree) upperBound(keys [][]byte, target []byte) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if t.cmp(keys[mid], target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// find returns the index of an exact match, or -1.
func (t *BPlusTree) find(keys [][]byte, target []byte) int {
	i := t.lowerBound(keys, target)
	if i < len(keys) && t.cmp(keys[i], target) == 0 {
		return i
	}
	return -1
}

// insert inserts elem at index i in slice.
func insert[T any](slice []T, i int, elem T) []T {
	slice = append(slice, elem) // grow by 1
	copy(slice[i+1:], slice[i:])
	slice[i] = elem
	return slice
}

// remove removes element at index i from slice.
func remove[T any](slice []T, i int) []T {
	return append(slice[:i], slice[i+1:]...)
}
