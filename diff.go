package gotlive

// DiffResult describes how the segment texts of two consecutive passes differ.
type DiffResult struct {
	Added     []string // in the new pass only, in new-pass order
	Removed   []string // in the old pass only, in old-pass order
	Unchanged []string // in both, in new-pass order
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffSegments compares the normalized texts of two passes. Segment ids are
// not stable across passes, so texts are the identity.
func DiffSegments(oldTexts, newTexts []string) *DiffResult {
	result := &DiffResult{}

	inOld := make(map[string]bool, len(oldTexts))
	for _, text := range oldTexts {
		inOld[text] = true
	}
	inNew := make(map[string]bool, len(newTexts))
	for _, text := range newTexts {
		if inNew[text] {
			continue
		}
		inNew[text] = true
		if inOld[text] {
			result.Unchanged = append(result.Unchanged, text)
		} else {
			result.Added = append(result.Added, text)
		}
	}

	seen := make(map[string]bool, len(oldTexts))
	for _, text := range oldTexts {
		if !inNew[text] && !seen[text] {
			result.Removed = append(result.Removed, text)
		}
		seen[text] = true
	}

	return result
}
