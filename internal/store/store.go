package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jeanpaul/cookbook/internal/item"
)

// Store is the set of known items, keyed by name. Provenance is kept as name
// pairs, so cycles and self-reference need no special handling.
//
// One writer (the discovery engine) and any number of readers may use a Store
// concurrently.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*item.Item
	pairs     map[item.Pair]struct{} // every parent pair of every item
	exhausted map[item.Pair]struct{} // pairs the oracle answered with Nothing
}

// New returns a store seeded with the base items.
func New() *Store {
	s := Empty()
	for _, it := range item.Seeds() {
		s.Add(it.Name, it.Emoji)
	}
	return s
}

// Empty returns a store with no items at all.
func Empty() *Store {
	return &Store{
		items:     make(map[string]*item.Item),
		pairs:     make(map[item.Pair]struct{}),
		exhausted: make(map[item.Pair]struct{}),
	}
}

// Get returns a copy of the named item.
func (s *Store) Get(name string) (item.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[name]
	if !ok {
		return item.Item{}, false
	}
	return it.Clone(), true
}

// Has reports whether the name is known.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok
}

// Add inserts an item with no provenance. It returns false and changes
// nothing when the name is empty or already exists.
func (s *Store) Add(name, emoji string) bool {
	return s.put(item.New(name, emoji, false))
}

// Put inserts an item with no provenance, keeping its IsNew flag. Parents on
// it are ignored; attach them with InsertOrUpdate.
func (s *Store) Put(it item.Item) bool {
	return s.put(item.New(it.Name, it.Emoji, it.IsNew))
}

func (s *Store) put(it item.Item) bool {
	if it.Name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.Name]; ok {
		return false
	}
	s.items[it.Name] = &it
	return true
}

// InsertOrUpdate records that pair produces name. An unknown name is created
// with pair as its only parent; a known name gets pair appended unless it is
// already listed. The emoji and isNew of an existing item are never touched.
// It reports whether the item was created. An empty name is ignored.
func (s *Store) InsertOrUpdate(name, emoji string, isNew bool, pair item.Pair) bool {
	if name == "" {
		return false
	}
	pair = pair.Canonical()

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[name]
	if !ok {
		created := item.New(name, emoji, isNew)
		created.Parents = []item.Pair{pair}
		s.items[name] = &created
		s.pairs[pair] = struct{}{}
		return true
	}
	if !it.HasParents(pair.First, pair.Second) {
		it.Parents = append(it.Parents, pair)
		s.pairs[pair] = struct{}{}
	}
	return false
}

// ContainsPair reports whether name's provenance lists the pair.
func (s *Store) ContainsPair(name, first, second string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[name]
	return ok && it.HasParents(first, second)
}

// AnyItemHasPair reports whether any item lists the pair as a parent. This is
// the global "already combined" check.
func (s *Store) AnyItemHasPair(first, second string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pairs[item.Canonical(first, second)]
	return ok
}

// MarkExhausted remembers that the pair produced Nothing.
func (s *Store) MarkExhausted(first, second string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhausted[item.Canonical(first, second)] = struct{}{}
}

// IsExhausted reports whether the pair is known to produce Nothing.
func (s *Store) IsExhausted(first, second string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exhausted[item.Canonical(first, second)]
	return ok
}

// Exhausted returns the Nothing pairs in sorted order.
func (s *Store) Exhausted() []item.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedExhausted()
}

func (s *Store) sortedExhausted() []item.Pair {
	out := make([]item.Pair, 0, len(s.exhausted))
	for p := range s.exhausted {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Names returns every item name, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items returns copies of every item, sorted by name.
func (s *Store) Items() []item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedItems()
}

func (s *Store) sortedItems() []item.Item {
	out := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot returns items and exhausted pairs taken under a single lock, so
// the two always agree with each other.
func (s *Store) Snapshot() ([]item.Item, []item.Pair) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedItems(), s.sortedExhausted()
}

func (s *Store) String() string {
	items := s.Items()
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.String()
	}
	return fmt.Sprintf("%d items: %s", len(items), strings.Join(labels, ", "))
}
