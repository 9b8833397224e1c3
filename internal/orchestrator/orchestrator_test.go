package orchestrator

import (
	"testing"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/cache"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return New(t.TempDir(), CompilerConfig{})
}

func TestOpenDocumentReflectsTheStore(t *testing.T) {
	o := newTestOrchestrator(t)
	if _, ok := o.OpenDocument("file:///a.metal"); ok {
		t.Fatalf("OpenDocument() ok = true before any document is opened")
	}

	o.Documents.Open("file:///a.metal", "float x;", 1)
	doc, ok := o.OpenDocument("file:///a.metal")
	if !ok || doc.Text != "float x;" {
		t.Fatalf("OpenDocument() = %+v, %v, want the opened buffer", doc, ok)
	}
}

func TestIncludePathsReturnsTheConfiguredWorkspaceSearchPath(t *testing.T) {
	o := newTestOrchestrator(t)
	o.IncludeDirs = []string{"/usr/include", "/project/include"}

	got := o.IncludePaths("file:///anything.metal")
	if len(got) != 2 || got[0] != "/usr/include" {
		t.Fatalf("IncludePaths() = %v, want the configured IncludeDirs", got)
	}
}

func TestOpenURIsListsEveryOpenDocument(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Documents.Open("file:///a.metal", "", 1)
	o.Documents.Open("file:///b.metal", "", 1)

	uris := o.OpenURIs()
	if len(uris) != 2 {
		t.Fatalf("OpenURIs() = %v, want 2 entries", uris)
	}
}

func TestDocumentTextRoundTripsBufferContent(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Documents.Open("file:///a.metal", "kernel void k() {}", 1)

	text, ok := o.DocumentText("file:///a.metal")
	if !ok || text != "kernel void k() {}" {
		t.Fatalf("DocumentText() = %q, %v, want the opened buffer text", text, ok)
	}

	if _, ok := o.DocumentText("file:///missing.metal"); ok {
		t.Fatalf("DocumentText() ok = true for an unopened document")
	}
}

func TestFileIndexingStateReportsUncachedFilesAsMissing(t *testing.T) {
	o := newTestOrchestrator(t)
	if _, cached := o.FileIndexingState("file:///a.metal"); cached {
		t.Fatalf("FileIndexingState() cached = true before any index was built")
	}
}

func TestFileIndexingStateChangesWhenTheSourceFingerprintChanges(t *testing.T) {
	o := newTestOrchestrator(t)
	idx := ast.Build(nil, nil)

	o.store("file:///a.metal", idx, "hash-v1", "includes-v1")
	gen1, cached := o.FileIndexingState("file:///a.metal")
	if !cached {
		t.Fatalf("FileIndexingState() cached = false after store()")
	}

	o.store("file:///a.metal", idx, "hash-v2", "includes-v1")
	gen2, _ := o.FileIndexingState("file:///a.metal")

	if gen1 == gen2 {
		t.Fatalf("FileIndexingState() generation unchanged across a source hash change: %d", gen1)
	}
}

func TestInvalidateDropsTheMemoryCacheEntry(t *testing.T) {
	o := newTestOrchestrator(t)
	o.store("file:///a.metal", ast.Build(nil, nil), "h", "i")

	o.Invalidate("file:///a.metal")

	if _, cached := o.FileIndexingState("file:///a.metal"); cached {
		t.Fatalf("FileIndexingState() cached = true after Invalidate()")
	}
}

func TestResolverUsesTheStoredGraphLimits(t *testing.T) {
	o := newTestOrchestrator(t)
	o.GraphDepth = 3
	o.GraphMaxNodes = 50

	r := o.Resolver()
	if r.Acquirer == nil || r.ProjectIndex != o.Project || r.ProjectGraph != o.Graph {
		t.Fatalf("Resolver() = %+v, want it bound to the orchestrator's own stores", r)
	}
	if r.ProjectGraphDepth != 3 || r.ProjectGraphMaxNodes != 50 {
		t.Fatalf("Resolver() graph limits = (%d, %d), want (3, 50)", r.ProjectGraphDepth, r.ProjectGraphMaxNodes)
	}
}

func TestNewResolverHonorsExplicitGraphLimits(t *testing.T) {
	o := newTestOrchestrator(t)
	r := o.NewResolver(7, 99)
	if r.ProjectGraphDepth != 7 || r.ProjectGraphMaxNodes != 99 {
		t.Fatalf("NewResolver() graph limits = (%d, %d), want (7, 99)", r.ProjectGraphDepth, r.ProjectGraphMaxNodes)
	}
}

func TestFileMutexReturnsTheSameMutexForTheSameKey(t *testing.T) {
	o := newTestOrchestrator(t)
	a := o.fileMutex("file:///a.metal")
	b := o.fileMutex("file:///a.metal")
	c := o.fileMutex("file:///b.metal")

	if a != b {
		t.Fatalf("fileMutex() returned different mutexes for the same key")
	}
	if a == c {
		t.Fatalf("fileMutex() returned the same mutex for different keys")
	}
}

func TestAcquireServesFromMemoryWithoutInvokingTheCompiler(t *testing.T) {
	o := newTestOrchestrator(t)
	idx := ast.Build(nil, nil)
	doc := document.New("file:///a.metal", "same text", 1)

	sourceHash := cache.SourceHash([]byte(doc.Text))
	includeHash := cache.IncludeHash(cache.SortedDedupedIncludes(nil))
	o.store("file:///a.metal", idx, sourceHash, includeHash)

	got, ok := o.Acquire("file:///a.metal", doc, nil, nil)
	if !ok || got != idx {
		t.Fatalf("Acquire() = %+v, %v, want the memory-cached index served without a rebuild", got, ok)
	}
}
