package pharmacy

// =============================================================================
// ENTITY STORE - Ordered, id-keyed collections
// =============================================================================

// collection is an ordered list of records addressed by id.
// Order is significant: sales, credits and bills are kept newest first.
// Callers hold the ledger lock; collection itself is not synchronized.
type collection[T any] struct {
	name  Collection
	items []T
	idOf  func(*T) string
	clone func(T) T // nil means a plain value copy is deep enough
}

func newCollection[T any](name Collection, idOf func(*T) string) *collection[T] {
	return &collection[T]{name: name, idOf: idOf}
}

func (c *collection[T]) copyOf(v T) T {
	if c.clone != nil {
		return c.clone(v)
	}
	return v
}

// list returns a copy of all records in order.
func (c *collection[T]) list() []T {
	out := make([]T, len(c.items))
	for i, v := range c.items {
		out[i] = c.copyOf(v)
	}
	return out
}

func (c *collection[T]) find(id string) (T, bool) {
	for i := range c.items {
		if c.idOf(&c.items[i]) == id {
			return c.copyOf(c.items[i]), true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) has(id string) bool {
	_, ok := c.find(id)
	return ok
}

func (c *collection[T]) append(vs ...T) {
	for _, v := range vs {
		c.items = append(c.items, c.copyOf(v))
	}
}

// prepend inserts v at the head.
func (c *collection[T]) prepend(v T) {
	c.items = append([]T{c.copyOf(v)}, c.items...)
}

// update applies fn to every record with the given id and returns how many
// matched. Zero matches is not an error here.
func (c *collection[T]) update(id string, fn func(*T)) int {
	n := 0
	for i := range c.items {
		if c.idOf(&c.items[i]) == id {
			fn(&c.items[i])
			n++
		}
	}
	return n
}

func (c *collection[T]) remove(id string) int {
	return c.removeWhere(func(v *T) bool { return c.idOf(v) == id })
}

func (c *collection[T]) removeWhere(match func(*T) bool) int {
	kept := c.items[:0]
	removed := 0
	for i := range c.items {
		if match(&c.items[i]) {
			removed++
			continue
		}
		kept = append(kept, c.items[i])
	}
	// clear the tail so removed records are not retained
	for i := len(kept); i < len(c.items); i++ {
		var zero T
		c.items[i] = zero
	}
	c.items = kept
	return removed
}

// replace swaps in a whole new list.
func (c *collection[T]) replace(items []T) {
	c.items = make([]T, 0, len(items))
	c.append(items...)
}

func (c *collection[T]) count() int {
	return len(c.items)
}
