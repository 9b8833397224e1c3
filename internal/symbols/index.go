package symbols

import "sync"

// Index is the workspace-wide name -> locations map fed by per-document
// Scan results (spec.md ยง2, "Symbol index"). Updates are whole-file:
// replacing a URI's entries removes its prior contribution first.
type Index struct {
	mu       sync.RWMutex
	byURI    map[string][]Symbol
	byName   map[string][]Symbol
}

// NewIndex creates an empty symbol index.
func NewIndex() *Index {
	return &Index{byURI: make(map[string][]Symbol), byName: make(map[string][]Symbol)}
}

// Update replaces all symbols previously recorded for uri with syms.
func (idx *Index) Update(uri string, syms []Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(uri)
	idx.byURI[uri] = syms
	for _, s := range syms {
		idx.byName[s.Name] = append(idx.byName[s.Name], s)
	}
}

// Remove drops all symbols for uri (e.g. on didClose for a file that's
// no longer part of the workspace scan).
func (idx *Index) Remove(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(uri)
	delete(idx.byURI, uri)
}

func (idx *Index) removeLocked(uri string) {
	old := idx.byURI[uri]
	if len(old) == 0 {
		return
	}
	for _, s := range old {
		bucket := idx.byName[s.Name]
		filtered := bucket[:0]
		for _, existing := range bucket {
			if existing.URI != uri {
				filtered = append(filtered, existing)
			}
		}
		if len(filtered) == 0 {
			delete(idx.byName, s.Name)
		} else {
			idx.byName[s.Name] = filtered
		}
	}
}

// Lookup returns every symbol with the given name across the workspace.
func (idx *Index) Lookup(name string) []Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Symbol, len(idx.byName[name]))
	copy(out, idx.byName[name])
	return out
}

// ForURI returns the symbols currently recorded for a single file.
func (idx *Index) ForURI(uri string) []Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Symbol, len(idx.byURI[uri]))
	copy(out, idx.byURI[uri])
	return out
}

// All returns every indexed symbol across the workspace, for
// workspace/symbol requests.
func (idx *Index) All() []Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []Symbol
	for _, syms := range idx.byURI {
		out = append(out, syms...)
	}
	return out
}
