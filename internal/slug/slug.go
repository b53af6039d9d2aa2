// Package slug builds URL slugs and allocates them without collisions.
package slug

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Namespace scopes slug uniqueness to one entity type.
type Namespace string

// Slug namespaces.
const (
	Artists  Namespace = "artists"
	Releases Namespace = "releases"
	Tags     Namespace = "tags"
)

const fallback = "untitled"

// Make converts a display name into a lowercase ASCII slug. Accents are
// stripped and runs of other characters collapse into a single hyphen.
func Make(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		if r == '\'' || r == '’' {
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// Temporary returns a slug guaranteed not to clash with any allocated slug.
// It holds a row's place until the final slug can be assigned.
func Temporary(base string) string {
	return Make(base) + "-tmp-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Checker reports whether a slug is already persisted in a namespace.
type Checker interface {
	SlugTaken(ctx context.Context, ns Namespace, slug string) (bool, error)
}

// Allocator hands out unique slugs for one namespace. It remembers every
// slug it has issued, so slugs allocated earlier in a batch stay reserved
// even when their rows are not yet visible to the Checker. Colliding bases
// receive strictly increasing numeric suffixes: the bare slug, then -2, -3.
type Allocator struct {
	namespace Namespace

	mu   sync.Mutex
	used map[string]bool
	last map[string]int
}

// NewAllocator creates an allocator for the namespace.
func NewAllocator(ns Namespace) *Allocator {
	return &Allocator{
		namespace: ns,
		used:      make(map[string]bool),
		last:      make(map[string]int),
	}
}

// Allocate returns a slug for name that is neither issued by this allocator
// nor taken according to c.
func (a *Allocator) Allocate(ctx context.Context, c Checker, name string) (string, error) {
	base := Make(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	for n := a.last[base] + 1; ; n++ {
		candidate := base
		if n > 1 {
			candidate = base + "-" + strconv.Itoa(n)
		}
		if a.used[candidate] {
			continue
		}
		taken, err := c.SlugTaken(ctx, a.namespace, candidate)
		if err != nil {
			return "", fmt.Errorf("checking %s slug %q: %w", a.namespace, candidate, err)
		}
		if taken {
			continue
		}
		a.last[base] = n
		a.used[candidate] = true
		return candidate, nil
	}
}

// Reserve marks a slug as issued without allocating it, e.g. when a
// replacement release takes over the slug of the release it replaced.
func (a *Allocator) Reserve(slug string) {
	a.mu.Lock()
	a.used[slug] = true
	a.mu.Unlock()
}
