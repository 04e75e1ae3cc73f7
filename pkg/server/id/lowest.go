package id

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Lowest picks the id for a new record.
// It returns the smallest id in [1, counter] not in used, and false.
// If there is no such id, it returns counter+1 and true, which means the counter should grow to the returned id.
func Lowest(used mapset.Set[uint64], counter uint64) (id uint64, grow bool) {
	for i := uint64(1); i <= counter; i++ {
		if used == nil || !used.Contains(i) {
			return i, false
		}
	}
	return counter + 1, true
}
