package classfile

import (
	"fmt"
	"sort"
)

// Filter decides whether a referenced class is interesting enough to keep.
// It is consulted once per discovered reference, after outer-class reduction
// and before the reference enters any collection.
type Filter func(ClassName) bool

// AcceptAll keeps every reference.
func AcceptAll(ClassName) bool { return true }

// Collector accumulates the class references found while decoding a single
// file. One Collector is scoped to one decode pass; concurrent decodes never
// share one, which is what keeps per-file decoding trivially parallel.
type Collector struct {
	filter Filter
	refs   map[ClassName]struct{}
}

func NewCollector(filter Filter) *Collector {
	if filter == nil {
		filter = AcceptAll
	}
	return &Collector{
		filter: filter,
		refs:   make(map[ClassName]struct{}),
	}
}

// Add reduces candidate to its outer class, applies the filter, and records
// it. Duplicates collapse silently.
func (c *Collector) Add(candidate ClassName) {
	if candidate.IsEmpty() {
		return
	}
	outer := candidate.OuterClass()
	if !c.filter(outer) {
		return
	}
	c.refs[outer] = struct{}{}
}

// Len returns the number of distinct collected references.
func (c *Collector) Len() int {
	return len(c.refs)
}

// Names returns the collected references sorted by dotted name.
func (c *Collector) Names() []ClassName {
	out := make([]ClassName, 0, len(c.refs))
	for ref := range c.refs {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Contains reports whether the (already reduced) name was collected.
func (c *Collector) Contains(name ClassName) bool {
	_, ok := c.refs[name]
	return ok
}

// String renders the sorted reference list, the debug form used in logs and
// failure messages.
func (c *Collector) String() string {
	return fmt.Sprintf("%v", c.Names())
}
