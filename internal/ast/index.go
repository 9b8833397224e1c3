package ast

// Index holds one translation unit's definitions and references plus
// the five derived lookup maps described in spec.md ยง3: every index
// stored in a derived map is a valid slot in Defs/Refs, and when two
// defs share an ID the definition wins over any declaration.
type Index struct {
	Defs []SymbolDef
	Refs []RefSite

	idToDef        map[string]int
	nameToDefs     map[string][]int
	targetIDToRefs map[string][]int
	fileToDefs     map[string][]int
	fileToRefs     map[string][]int
}

// Build constructs an Index from a flat defs/refs collection, in
// encounter order, as produced by the indexer's tree walk.
func Build(defs []SymbolDef, refs []RefSite) *Index {
	idx := &Index{
		Defs:           defs,
		Refs:           refs,
		idToDef:        make(map[string]int, len(defs)),
		nameToDefs:     make(map[string][]int, len(defs)),
		targetIDToRefs: make(map[string][]int, len(refs)),
		fileToDefs:     make(map[string][]int),
		fileToRefs:     make(map[string][]int),
	}

	for i, def := range defs {
		if existing, ok := idx.idToDef[def.ID]; ok {
			if def.IsDefinition && !defs[existing].IsDefinition {
				idx.idToDef[def.ID] = i
			}
		} else {
			idx.idToDef[def.ID] = i
		}
		idx.nameToDefs[def.Name] = append(idx.nameToDefs[def.Name], i)
		idx.fileToDefs[def.File] = append(idx.fileToDefs[def.File], i)
	}
	for i, ref := range refs {
		idx.targetIDToRefs[ref.TargetID] = append(idx.targetIDToRefs[ref.TargetID], i)
		idx.fileToRefs[ref.File] = append(idx.fileToRefs[ref.File], i)
	}
	return idx
}

// DefByID returns the winning definition for id, if any.
func (idx *Index) DefByID(id string) (*SymbolDef, bool) {
	i, ok := idx.idToDef[id]
	if !ok {
		return nil, false
	}
	return &idx.Defs[i], true
}

// DefsByName returns every def sharing name, in encounter order.
func (idx *Index) DefsByName(name string) []*SymbolDef {
	return idx.gatherDefs(idx.nameToDefs[name])
}

// DefsInFile returns every def recorded for file.
func (idx *Index) DefsInFile(file string) []*SymbolDef {
	return idx.gatherDefs(idx.fileToDefs[file])
}

// RefsInFile returns every ref recorded for file.
func (idx *Index) RefsInFile(file string) []*RefSite {
	return idx.gatherRefs(idx.fileToRefs[file])
}

// RefsTo returns every ref whose TargetID equals id.
func (idx *Index) RefsTo(id string) []*RefSite {
	return idx.gatherRefs(idx.targetIDToRefs[id])
}

// Declarations returns the non-definition defs sharing name.
func (idx *Index) Declarations(name string) []*SymbolDef {
	var out []*SymbolDef
	for _, i := range idx.nameToDefs[name] {
		if !idx.Defs[i].IsDefinition {
			out = append(out, &idx.Defs[i])
		}
	}
	return out
}

// Implementations returns the definition defs sharing name.
func (idx *Index) Implementations(name string) []*SymbolDef {
	var out []*SymbolDef
	for _, i := range idx.nameToDefs[name] {
		if idx.Defs[i].IsDefinition {
			out = append(out, &idx.Defs[i])
		}
	}
	return out
}

// typeFormingKinds is the set of def kinds TypeDefinition considers.
var typeFormingKinds = map[Kind]bool{
	KindCXXRecordDecl:        true,
	KindTypedefDecl:          true,
	KindTypeAliasDecl:        true,
	KindEnumDecl:             true,
	KindTemplateTypeParmDecl: true,
}

// IsTypeFormingKind reports whether kind is one TypeDefinition will
// resolve a type name to: a struct/class, typedef, type alias, enum,
// or template type parameter.
func IsTypeFormingKind(kind Kind) bool {
	return typeFormingKinds[kind]
}

// TypeDefinition resolves def's TypeName (set for value declarations)
// to the most appropriate type-forming def: preferring a non-system
// header candidate when one exists, and within that pool preferring an
// actual definition over a forward declaration.
func (idx *Index) TypeDefinition(def *SymbolDef, isSystemHeader func(string) bool) (*SymbolDef, bool) {
	if def.TypeName == "" {
		return nil, false
	}
	var candidates []*SymbolDef
	for _, i := range idx.nameToDefs[def.TypeName] {
		d := &idx.Defs[i]
		if typeFormingKinds[d.Kind] {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	pool := candidates
	if isSystemHeader != nil {
		var userOnly []*SymbolDef
		for _, c := range candidates {
			if !isSystemHeader(c.File) {
				userOnly = append(userOnly, c)
			}
		}
		if len(userOnly) > 0 {
			pool = userOnly
		}
	}

	var defs []*SymbolDef
	for _, c := range pool {
		if c.IsDefinition {
			defs = append(defs, c)
		}
	}
	if len(defs) > 0 {
		pool = defs
	}
	return pool[0], true
}

func (idx *Index) gatherDefs(indices []int) []*SymbolDef {
	if len(indices) == 0 {
		return nil
	}
	out := make([]*SymbolDef, len(indices))
	for i, v := range indices {
		out[i] = &idx.Defs[v]
	}
	return out
}

func (idx *Index) gatherRefs(indices []int) []*RefSite {
	if len(indices) == 0 {
		return nil
	}
	out := make([]*RefSite, len(indices))
	for i, v := range indices {
		out[i] = &idx.Refs[v]
	}
	return out
}
