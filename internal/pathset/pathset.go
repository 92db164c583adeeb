package pathset

import "sort"

// Set is an unordered collection of unique paths.
type Set map[string]struct{}

// NewSet returns a set holding paths.
func NewSet(paths ...string) Set {
	s := make(Set, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

func (s Set) Add(path string) {
	s[path] = struct{}{}
}

func (s Set) Remove(path string) {
	delete(s, path)
}

func (s Set) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the members of s in lexical order.
func (s Set) Sorted() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Filter takes a set of discovered paths and returns the set that should
// replace it. It may drop, keep or rewrite members.
type Filter func(Set) Set

// Keep builds a Filter that retains the paths for which pred returns true.
func Keep(pred func(path string) bool) Filter {
	return func(in Set) Set {
		out := make(Set, len(in))
		for p := range in {
			if pred(p) {
				out.Add(p)
			}
		}
		return out
	}
}

// PathSet holds the classified contents of an installer payload.
//
// Dirs and Files are independent of the link maps. A path never appears in
// more than one of Files, Symlinks and Links.
type PathSet struct {
	Dirs     Set
	Files    Set
	Symlinks map[string]string // link path -> target as written in the link
	Links    map[string]string // hard link path -> path it shares data with
}

// New returns an empty PathSet.
func New() *PathSet {
	p := &PathSet{}
	p.Reset()
	return p
}

// Reset drops every classified path.
func (p *PathSet) Reset() {
	p.Dirs = make(Set)
	p.Files = make(Set)
	p.Symlinks = make(map[string]string)
	p.Links = make(map[string]string)
}

// AddSymlink records path as a symbolic link to target, removing it from the
// file set if present.
func (p *PathSet) AddSymlink(path, target string) {
	p.Files.Remove(path)
	delete(p.Links, path)
	p.Symlinks[path] = target
}

// AddHardLink records path as a hard link to target, removing it from the
// file set if present.
func (p *PathSet) AddHardLink(path, target string) {
	p.Files.Remove(path)
	delete(p.Symlinks, path)
	p.Links[path] = target
}

// Len returns the number of classified entries across all collections.
func (p *PathSet) Len() int {
	return len(p.Dirs) + len(p.Files) + len(p.Symlinks) + len(p.Links)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
