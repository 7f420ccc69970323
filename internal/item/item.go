package item

import "fmt"

const (
	// Nothing is the name the oracle returns when a pair has no result.
	Nothing = "Nothing"

	// Placeholder is shown for items the oracle returned without a glyph.
	Placeholder = "❓️"
)

// Pair is an unordered recipe. Use Canonical to build one; the zero value is
// not meaningful.
type Pair struct {
	First  string
	Second string
}

// Canonical orders the two names so that (a, b) and (b, a) compare equal.
func Canonical(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{First: a, Second: b}
}

// Canonical returns p with its members reordered.
func (p Pair) Canonical() Pair { return Canonical(p.First, p.Second) }

// HasNothing reports whether either member is the Nothing sentinel.
func (p Pair) HasNothing() bool {
	return p.First == Nothing || p.Second == Nothing
}

// Less orders pairs by first member, then second.
func (p Pair) Less(o Pair) bool {
	if p.First != o.First {
		return p.First < o.First
	}
	return p.Second < o.Second
}

func (p Pair) String() string { return p.First + " + " + p.Second }

// Item is a discovered or seeded concept. Parents holds every recipe known to
// produce it, as names rather than item handles, so an item may list itself
// as a parent.
type Item struct {
	Name    string
	Emoji   string
	IsNew   bool
	Parents []Pair
}

// New returns an item with no provenance. An empty glyph becomes Placeholder.
func New(name, emoji string, isNew bool) Item {
	if emoji == "" {
		emoji = Placeholder
	}
	return Item{Name: name, Emoji: emoji, IsNew: isNew}
}

// HasParents reports whether the item lists the pair, in either order.
func (it Item) HasParents(first, second string) bool {
	want := Canonical(first, second)
	for _, p := range it.Parents {
		if p.Canonical() == want {
			return true
		}
	}
	return false
}

// IsBase reports whether the item has no known recipe.
func (it Item) IsBase() bool { return len(it.Parents) == 0 }

// Clone returns a copy that shares no memory with it.
func (it Item) Clone() Item {
	out := it
	out.Parents = append([]Pair(nil), it.Parents...)
	return out
}

func (it Item) String() string {
	s := fmt.Sprintf("%s %s", it.Emoji, it.Name)
	if it.IsNew {
		s += " ✨"
	}
	return s
}

// Seeds returns the four base items every new collection starts with.
func Seeds() []Item {
	return []Item{
		New("Water", "💧", false),
		New("Fire", "🔥", false),
		New("Wind", "🌬️", false),
		New("Earth", "🌍️", false),
	}
}
