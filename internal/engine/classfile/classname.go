// Package classfile decodes compiled JVM class files and extracts every class
// reference they contain: superclass and interface links, field and method
// descriptors, generic signatures, annotation types, instruction operands,
// exception handlers and local variable tables. It performs no bytecode
// interpretation; it only reads the static structure of the binary.
package classfile

import "strings"

// ClassName is the canonical identity of a named class. The same class yields
// an equal ClassName whether it was seen as an internal name ("com/app/Foo"),
// inside a descriptor ("Lcom/app/Foo;") or as a signature token. The zero
// value is the empty name.
type ClassName struct {
	name string
}

// NameFromInternal builds a ClassName from the JVM internal (slash-separated)
// form used in constant pool Class entries and signature tokens.
func NameFromInternal(internal string) ClassName {
	return ClassName{name: strings.ReplaceAll(internal, "/", ".")}
}

// NameFromBinary builds a ClassName from an already dotted binary name, the
// form found in framework config files and used for synthetic file identities.
func NameFromBinary(binary string) ClassName {
	return ClassName{name: binary}
}

func (c ClassName) String() string {
	return c.name
}

// PackageName returns the dotted package prefix, or "" for the default package.
func (c ClassName) PackageName() string {
	idx := strings.LastIndexByte(c.name, '.')
	if idx < 0 {
		return ""
	}
	return c.name[:idx]
}

// IsEmpty reports whether this is the zero ClassName.
func (c ClassName) IsEmpty() bool {
	return c.name == ""
}

// OuterClass collapses a nested, inner, local or anonymous class to its
// top-level enclosing class: "com.x.Outer$Inner" becomes "com.x.Outer".
// A name without a nesting marker, or one whose marker sits at the start of
// the simple name (so truncation would leave nothing), is returned unchanged.
func (c ClassName) OuterClass() ClassName {
	start := strings.LastIndexByte(c.name, '.') + 1
	marker := strings.IndexByte(c.name[start:], '$')
	if marker <= 0 {
		return c
	}
	return ClassName{name: c.name[:start+marker]}
}
