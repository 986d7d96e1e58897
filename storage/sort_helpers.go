package storage

import "sort"

// sortPermutation sorts perm (initially the identity permutation) so that
// perm[k] names the original index that should land at dense position k,
// ordered by less(i, j) over original indices.
func sortPermutation(perm []int, less func(i, j int) bool) {
	sort.Slice(perm, func(a, b int) bool { return less(perm[a], perm[b]) })
}

// sortPermutationStable is the stable variant, used by MatchSort where
// ties (entities absent from the reference order) must preserve their
// original relative order.
func sortPermutationStable(perm []int, less func(i, j int) bool) {
	sort.SliceStable(perm, func(a, b int) bool { return less(perm[a], perm[b]) })
}
