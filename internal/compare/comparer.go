package compare

import (
	"fmt"
	"sort"
	"strings"

	"nsisgen/internal/manifest"
)

type ChangeType string

const (
	Added    ChangeType = "ADDED"
	Modified ChangeType = "MODIFIED"
	Deleted  ChangeType = "DELETED"
)

type Change struct {
	Type ChangeType
	Path string
	Old  *manifest.Entry
	New  *manifest.Entry
}

type CompareResult struct {
	Added    []Change
	Modified []Change
	Deleted  []Change
}

func (r *CompareResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Modified) > 0 || len(r.Deleted) > 0
}

func entryChanged(a, b manifest.Entry) bool {
	return a.Kind != b.Kind || a.Hash != b.Hash || a.Target != b.Target
}

// Compare reports how the payload described by newM differs from oldM.
// Entries are matched by install path.
func Compare(oldM, newM *manifest.Manifest) *CompareResult {
	result := &CompareResult{
		Added:    make([]Change, 0),
		Modified: make([]Change, 0),
		Deleted:  make([]Change, 0),
	}

	if oldM.Digest != "" && oldM.Digest == newM.Digest {
		return result
	}

	oldEntries := make(map[string]manifest.Entry, len(oldM.Entries))
	for _, e := range oldM.Entries {
		oldEntries[e.Path] = e
	}
	newEntries := make(map[string]manifest.Entry, len(newM.Entries))
	for _, e := range newM.Entries {
		newEntries[e.Path] = e
	}

	for path, newEntry := range newEntries {
		newCopy := newEntry
		if oldEntry, exists := oldEntries[path]; exists {
			if entryChanged(oldEntry, newEntry) {
				oldCopy := oldEntry
				result.Modified = append(result.Modified, Change{Type: Modified, Path: path, Old: &oldCopy, New: &newCopy})
			}
		} else {
			result.Added = append(result.Added, Change{Type: Added, Path: path, New: &newCopy})
		}
	}

	for path, oldEntry := range oldEntries {
		if _, exists := newEntries[path]; !exists {
			oldCopy := oldEntry
			result.Deleted = append(result.Deleted, Change{Type: Deleted, Path: path, Old: &oldCopy})
		}
	}

	// Sort for deterministic output
	for _, changes := range [][]Change{result.Added, result.Modified, result.Deleted} {
		sort.Slice(changes, func(i, j int) bool {
			return changes[i].Path < changes[j].Path
		})
	}

	return result
}

func describe(e *manifest.Entry) string {
	switch e.Kind {
	case manifest.KindFile:
		return fmt.Sprintf("file, hash: %s, size: %d bytes", e.Hash, e.Size)
	case manifest.KindSymlink, manifest.KindHardLink:
		return fmt.Sprintf("%s -> %s", e.Kind, e.Target)
	default:
		return string(e.Kind)
	}
}

func FormatReport(result *CompareResult) string {
	if !result.HasChanges() {
		return "No changes detected."
	}

	var report strings.Builder
	report.WriteString("Changes detected:\n\n")

	if len(result.Added) > 0 {
		fmt.Fprintf(&report, "ADDED (%d entries):\n", len(result.Added))
		for _, change := range result.Added {
			fmt.Fprintf(&report, "  + %s (%s)\n", change.Path, describe(change.New))
		}
		report.WriteString("\n")
	}

	if len(result.Modified) > 0 {
		fmt.Fprintf(&report, "MODIFIED (%d entries):\n", len(result.Modified))
		for _, change := range result.Modified {
			fmt.Fprintf(&report, "  ~ %s\n", change.Path)
			fmt.Fprintf(&report, "    Old: %s\n", describe(change.Old))
			fmt.Fprintf(&report, "    New: %s\n", describe(change.New))
		}
		report.WriteString("\n")
	}

	if len(result.Deleted) > 0 {
		fmt.Fprintf(&report, "DELETED (%d entries):\n", len(result.Deleted))
		for _, change := range result.Deleted {
			fmt.Fprintf(&report, "  - %s (%s)\n", change.Path, describe(change.Old))
		}
		report.WriteString("\n")
	}

	fmt.Fprintf(&report, "Summary: %d added, %d modified, %d deleted\n",
		len(result.Added), len(result.Modified), len(result.Deleted))

	return report.String()
}
