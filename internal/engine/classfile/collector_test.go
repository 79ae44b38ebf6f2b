package classfile

import (
	"strings"
	"testing"
)

func TestCollectorReducesAndDeduplicates(t *testing.T) {
	c := NewCollector(nil)
	c.Add(NameFromBinary("com.app.Foo$Bar"))
	c.Add(NameFromBinary("com.app.Foo$Baz"))
	c.Add(NameFromBinary("com.app.Foo"))
	c.Add(NameFromBinary("com.app.Other"))

	got := c.Names()
	if !namesEqual(got, "com.app.Foo", "com.app.Other") {
		t.Errorf("Names() = %v, want [com.app.Foo com.app.Other]", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCollectorFilter(t *testing.T) {
	only := func(n ClassName) bool { return strings.HasPrefix(n.String(), "com.app.") }
	c := NewCollector(only)
	c.Add(NameFromBinary("com.app.Kept"))
	c.Add(NameFromBinary("java.lang.String"))
	c.Add(NameFromBinary("com.vendor.Dropped"))

	if got := c.Names(); !namesEqual(got, "com.app.Kept") {
		t.Errorf("Names() = %v, want [com.app.Kept]", got)
	}
	if !c.Contains(NameFromBinary("com.app.Kept")) {
		t.Error("Contains should see the surviving name")
	}
	if c.Contains(NameFromBinary("java.lang.String")) {
		t.Error("Contains should not see a filtered name")
	}
}

// The filter runs after outer-class reduction, so a filter written against
// outer names also governs their nested classes.
func TestCollectorFiltersReducedName(t *testing.T) {
	notFoo := func(n ClassName) bool { return n.String() != "com.app.Foo" }
	c := NewCollector(notFoo)
	c.Add(NameFromBinary("com.app.Foo$Inner"))
	if c.Len() != 0 {
		t.Errorf("nested class of an excluded outer should be dropped, got %v", c.Names())
	}
}

func TestCollectorIgnoresEmpty(t *testing.T) {
	c := NewCollector(nil)
	c.Add(ClassName{})
	if c.Len() != 0 {
		t.Errorf("empty name should be ignored, got %v", c.Names())
	}
}

func TestCollectorAddIsIdempotent(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < 3; i++ {
		c.Add(NameFromBinary("com.app.Same"))
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after repeated Add, want 1", c.Len())
	}
}

func TestAcceptAll(t *testing.T) {
	if !AcceptAll(NameFromBinary("anything.at.All")) {
		t.Error("AcceptAll should accept any name")
	}
}
