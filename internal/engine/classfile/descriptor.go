package classfile

import (
	"fmt"
	"strings"
)

// Descriptor grammar (JVMS 4.3): a compact encoding of field and method
// types. Primitives are single letters, arrays prefix their element type with
// '[', object types are wrapped in "L...;". Only object types produce
// references; the decoders below feed every one they find into the sink.

// decodeFieldDescriptor decodes a single field/bare type descriptor.
func decodeFieldDescriptor(desc string, sink *Collector) error {
	rest, err := decodeType(desc, sink)
	if err != nil {
		return err
	}
	if rest != "" {
		return fmt.Errorf("trailing data %q in descriptor %q", rest, desc)
	}
	return nil
}

// decodeMethodDescriptor decodes "(ArgTypes)ReturnType".
func decodeMethodDescriptor(desc string, sink *Collector) error {
	if desc == "" || desc[0] != '(' {
		return fmt.Errorf("malformed method descriptor %q", desc)
	}
	rest := desc[1:]
	for rest != "" && rest[0] != ')' {
		var err error
		rest, err = decodeType(rest, sink)
		if err != nil {
			return err
		}
	}
	if rest == "" {
		return fmt.Errorf("unterminated argument list in method descriptor %q", desc)
	}
	rest, err := decodeType(rest[1:], sink)
	if err != nil {
		return err
	}
	if rest != "" {
		return fmt.Errorf("trailing data %q in method descriptor %q", rest, desc)
	}
	return nil
}

// decodeObjectName decodes an internal binary name (JVMS 4.2.1) as found in
// constant pool Class entries. Instruction operands may carry an array
// descriptor in place of a plain name, so both forms are accepted.
func decodeObjectName(internal string, sink *Collector) error {
	if internal == "" {
		return fmt.Errorf("empty internal class name")
	}
	if internal[0] == '[' {
		return decodeFieldDescriptor(internal, sink)
	}
	sink.Add(NameFromInternal(internal))
	return nil
}

// decodeType consumes one type from the front of s and returns the remainder.
func decodeType(s string, sink *Collector) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty type descriptor")
	}
	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		return s[1:], nil
	case '[':
		return decodeType(s[1:], sink)
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return "", fmt.Errorf("unterminated object type in descriptor %q", s)
		}
		if end == 1 {
			return "", fmt.Errorf("empty object type in descriptor %q", s)
		}
		sink.Add(NameFromInternal(s[1:end]))
		return s[end+1:], nil
	default:
		return "", fmt.Errorf("unexpected character %q in descriptor %q", s[0], s)
	}
}
