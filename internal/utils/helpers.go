package utils

// Duplicates returns the values that appear more than once in slice, in order of their second occurrence.
func Duplicates[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	reported := make(map[T]struct{})
	var dups []T
	for _, item := range slice {
		if _, ok := seen[item]; !ok {
			seen[item] = struct{}{}
			continue
		}
		if _, ok := reported[item]; !ok {
			reported[item] = struct{}{}
			dups = append(dups, item)
		}
	}
	return dups
}
