// Package project aggregates per-file AST indexes into a workspace-wide
// index with a derived name fanout for cross-file lookup (spec.md ยง3,
// ยง4.6).
package project

import (
	"sync"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
)

// Hit is one cross-file name match: the file it was found in, and the
// matching definition.
type Hit struct {
	File string
	Def  *ast.SymbolDef
}

// RefHit is one cross-file by-name reference match: the file it was
// found in, and the matching reference site.
type RefHit struct {
	File string
	Ref  *ast.RefSite
}

// Index is the workspace's map file -> AstIndex plus derived
// name -> []Hit and name -> []RefHit fanouts. Updates are whole-file:
// replacing a file's index first removes every fanout entry mentioning
// that file.
type Index struct {
	mu         sync.RWMutex
	byFile     map[string]*ast.Index
	nameFanout map[string][]Hit
	refFanout  map[string][]RefHit
}

// New creates an empty project index.
func New() *Index {
	return &Index{
		byFile:     make(map[string]*ast.Index),
		nameFanout: make(map[string][]Hit),
		refFanout:  make(map[string][]RefHit),
	}
}

// Update replaces file's AstIndex and rebuilds every name entry that
// mentions it.
func (p *Index) Update(file string, idx *ast.Index) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(file)
	p.byFile[file] = idx
	for i := range idx.Defs {
		d := &idx.Defs[i]
		p.nameFanout[d.Name] = append(p.nameFanout[d.Name], Hit{File: file, Def: d})
	}
	for i := range idx.Refs {
		ref := &idx.Refs[i]
		if ref.TargetName == "" {
			continue
		}
		p.refFanout[ref.TargetName] = append(p.refFanout[ref.TargetName], RefHit{File: file, Ref: ref})
	}
}

// Remove drops file's AstIndex and its fanout contributions.
func (p *Index) Remove(file string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(file)
	delete(p.byFile, file)
}

func (p *Index) removeLocked(file string) {
	if _, ok := p.byFile[file]; !ok {
		return
	}
	for name, hits := range p.nameFanout {
		filtered := hits[:0]
		for _, h := range hits {
			if h.File != file {
				filtered = append(filtered, h)
			}
		}
		if len(filtered) == 0 {
			delete(p.nameFanout, name)
		} else {
			p.nameFanout[name] = filtered
		}
	}
	for name, hits := range p.refFanout {
		filtered := hits[:0]
		for _, h := range hits {
			if h.File != file {
				filtered = append(filtered, h)
			}
		}
		if len(filtered) == 0 {
			delete(p.refFanout, name)
		} else {
			p.refFanout[name] = filtered
		}
	}
}

// ForFile returns the AstIndex for a single file, if indexed.
func (p *Index) ForFile(file string) (*ast.Index, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx, ok := p.byFile[file]
	return idx, ok
}

// LookupByName returns every cross-file Hit for name, in encounter
// order across files.
func (p *Index) LookupByName(name string) []Hit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Hit, len(p.nameFanout[name]))
	copy(out, p.nameFanout[name])
	return out
}

// FindReferencesByName returns every cross-file RefHit whose reference
// site names name as its target, in encounter order across files. This
// augments ID-targeted reference lookup for cases an exact-ID walk
// misses (spec.md ยง4.7/ยง9's "augmented by ... by-name refs from the
// project index").
func (p *Index) FindReferencesByName(name string) []RefHit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]RefHit, len(p.refFanout[name]))
	copy(out, p.refFanout[name])
	return out
}

// Files returns every indexed file's key.
func (p *Index) Files() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byFile))
	for f := range p.byFile {
		out = append(out, f)
	}
	return out
}
