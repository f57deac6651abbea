package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// reUnsafe matches characters that are illegal in a file name on at least
// one common filesystem.
var reUnsafe = regexp.MustCompile(`[\\/*?:"<>|]`)

// MakeFSSafe replaces filesystem-unsafe characters of a single path
// element with "_".
func MakeFSSafe(name string) string {
	return reUnsafe.ReplaceAllString(name, "_")
}

// WithSuffix inserts " (n)" before the extension of name. n == 0 returns
// name unchanged.
func WithSuffix(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	if ext == name {
		ext = ""
	}
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

// Allocator hands out paths that neither exist on disk nor were handed out
// before. Claims made through a Scope only become visible to the parent on
// Commit, so an abandoned plan does not shift the names of the next one.
// All methods are goroutine-safe.
type Allocator struct {
	mu      sync.Mutex
	parent  *Allocator
	claimed map[string]bool
	exists  func(string) bool
}

// NewAllocator returns an allocator checking the filesystem through
// exists. A nil exists uses os.Stat.
func NewAllocator(exists func(path string) bool) *Allocator {
	if exists == nil {
		exists = pathExists
	}
	return &Allocator{claimed: make(map[string]bool), exists: exists}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Claim returns dir joined with the first free variant of base: base
// itself, then "stem (1).ext", "stem (2).ext" and so on. base is made
// filesystem-safe first.
func (a *Allocator) Claim(dir, base string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	safe := MakeFSSafe(base)
	for n := 0; ; n++ {
		candidate := filepath.Join(dir, WithSuffix(safe, n))
		if a.taken(candidate) || a.exists(candidate) {
			continue
		}
		a.claimed[candidate] = true
		return candidate
	}
}

// taken is called with a.mu held. Ancestors are locked child first, the
// same order Commit uses.
func (a *Allocator) taken(path string) bool {
	if a.claimed[path] {
		return true
	}
	for cur := a.parent; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		ok := cur.claimed[path]
		cur.mu.Unlock()
		if ok {
			return true
		}
	}
	return false
}

// Scope returns a child allocator. Paths it claims are checked against
// the parent's claims but recorded only in the child until Commit.
func (a *Allocator) Scope() *Allocator {
	return &Allocator{parent: a, claimed: make(map[string]bool), exists: a.exists}
}

// Commit moves the child's claims to its parent.
func (a *Allocator) Commit() {
	if a.parent == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()
	for p := range a.claimed {
		a.parent.claimed[p] = true
	}
	a.claimed = make(map[string]bool)
}
