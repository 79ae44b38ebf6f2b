package classfile

import "fmt"

const classMagic = 0xCAFEBABE

// Extraction is the outcome of decoding one class file.
type Extraction struct {
	// Name is the decoded class's own name, reduced to its outer class.
	Name ClassName
	// References holds every distinct class the file mentions that survives
	// the filter, sorted by name. It may include Name itself.
	References []ClassName
}

// Extract decodes data as a JVM class file and collects every class name it
// references: superclass and interfaces, field and method descriptors,
// generic signatures, thrown exceptions, annotations, and the operands of
// every type-bearing bytecode instruction. A nil filter keeps everything.
//
// Any structural inconsistency makes the whole file unreadable and returns
// an error; partial results are never produced.
func Extract(data []byte, filter Filter) (*Extraction, error) {
	w := &walker{sink: NewCollector(filter)}
	name, err := w.run(&byteReader{data: data})
	if err != nil {
		return nil, err
	}
	return &Extraction{Name: name, References: w.sink.Names()}, nil
}

type attrScope int

const (
	scopeClass attrScope = iota
	scopeField
	scopeMethod
	scopeCode
)

type walker struct {
	cp   constantPool
	sink *Collector
}

func (w *walker) run(r *byteReader) (ClassName, error) {
	magic, err := r.u4()
	if err != nil {
		return ClassName{}, err
	}
	if magic != classMagic {
		return ClassName{}, fmt.Errorf("not a class file: magic 0x%08X", magic)
	}
	if err := r.skip(4); err != nil { // minor_version, major_version
		return ClassName{}, err
	}
	if w.cp, err = readConstantPool(r); err != nil {
		return ClassName{}, err
	}
	if err := r.skip(2); err != nil { // access_flags
		return ClassName{}, err
	}

	thisIdx, err := r.u2()
	if err != nil {
		return ClassName{}, err
	}
	internal, err := w.cp.className(thisIdx)
	if err != nil {
		return ClassName{}, fmt.Errorf("this_class: %w", err)
	}
	// The file's own identity is reduced like any reference but never
	// filtered: a scan must know what it decoded.
	own := NameFromInternal(internal).OuterClass()

	superIdx, err := r.u2()
	if err != nil {
		return ClassName{}, err
	}
	if superIdx != 0 { // zero only for java.lang.Object and module-info
		name, err := w.cp.className(superIdx)
		if err != nil {
			return ClassName{}, fmt.Errorf("super_class: %w", err)
		}
		if err := decodeObjectName(name, w.sink); err != nil {
			return ClassName{}, err
		}
	}

	ifCount, err := r.u2()
	if err != nil {
		return ClassName{}, err
	}
	for i := 0; i < int(ifCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return ClassName{}, err
		}
		name, err := w.cp.className(idx)
		if err != nil {
			return ClassName{}, fmt.Errorf("interface %d: %w", i, err)
		}
		if err := decodeObjectName(name, w.sink); err != nil {
			return ClassName{}, err
		}
	}

	for _, method := range []bool{false, true} {
		count, err := r.u2()
		if err != nil {
			return ClassName{}, err
		}
		for i := 0; i < int(count); i++ {
			if err := w.readMember(r, method); err != nil {
				return ClassName{}, err
			}
		}
	}

	if err := w.readAttributes(r, scopeClass); err != nil {
		return ClassName{}, err
	}
	if r.pos != len(r.data) {
		return ClassName{}, fmt.Errorf("%d trailing bytes after class structure", len(r.data)-r.pos)
	}
	return own, nil
}

func (w *walker) readMember(r *byteReader, method bool) error {
	if err := r.skip(2); err != nil { // access_flags
		return err
	}
	nameIdx, err := r.u2()
	if err != nil {
		return err
	}
	if _, err := w.cp.utf8(nameIdx); err != nil {
		return fmt.Errorf("member name: %w", err)
	}
	descIdx, err := r.u2()
	if err != nil {
		return err
	}
	desc, err := w.cp.utf8(descIdx)
	if err != nil {
		return fmt.Errorf("member descriptor: %w", err)
	}
	if method {
		err = decodeMethodDescriptor(desc, w.sink)
	} else {
		err = decodeFieldDescriptor(desc, w.sink)
	}
	if err != nil {
		return err
	}
	scope := scopeField
	if method {
		scope = scopeMethod
	}
	return w.readAttributes(r, scope)
}

// readAttributes walks one attribute table. Attributes the reference walk
// does not care about, AnnotationDefault and BootstrapMethods included, are
// skipped by their declared length.
func (w *walker) readAttributes(r *byteReader, scope attrScope) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return err
		}
		name, err := w.cp.utf8(nameIdx)
		if err != nil {
			return fmt.Errorf("attribute name: %w", err)
		}
		length, err := r.u4()
		if err != nil {
			return err
		}
		raw, err := r.bytes(length)
		if err != nil {
			return err
		}
		sub := &byteReader{data: raw}
		switch name {
		case "Signature":
			if scope == scopeCode {
				continue
			}
			idx, err := sub.u2()
			if err != nil {
				return err
			}
			sig, err := w.cp.utf8(idx)
			if err != nil {
				return fmt.Errorf("signature: %w", err)
			}
			if scope == scopeField {
				err = decodeTypeSignature(sig, w.sink)
			} else {
				err = decodeClassOrMethodSignature(sig, w.sink)
			}
			if err != nil {
				return err
			}
		case "Exceptions":
			if scope != scopeMethod {
				continue
			}
			n, err := sub.u2()
			if err != nil {
				return err
			}
			for j := 0; j < int(n); j++ {
				idx, err := sub.u2()
				if err != nil {
					return err
				}
				thrown, err := w.cp.className(idx)
				if err != nil {
					return fmt.Errorf("exceptions attribute: %w", err)
				}
				if err := decodeObjectName(thrown, w.sink); err != nil {
					return err
				}
			}
		case "Code":
			if scope != scopeMethod {
				continue
			}
			if err := w.readCode(sub); err != nil {
				return err
			}
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			if scope == scopeCode {
				continue
			}
			if err := w.readAnnotations(sub); err != nil {
				return err
			}
		case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
			if scope != scopeMethod {
				continue
			}
			nParams, err := sub.u1()
			if err != nil {
				return err
			}
			for j := 0; j < int(nParams); j++ {
				if err := w.readAnnotations(sub); err != nil {
					return err
				}
			}
		case "LocalVariableTable":
			if scope != scopeCode {
				continue
			}
			if err := w.readLocalVariables(sub, false); err != nil {
				return err
			}
		case "LocalVariableTypeTable":
			if scope != scopeCode {
				continue
			}
			if err := w.readLocalVariables(sub, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) readCode(r *byteReader) error {
	if err := r.skip(4); err != nil { // max_stack, max_locals
		return err
	}
	codeLen, err := r.u4()
	if err != nil {
		return err
	}
	if codeLen == 0 {
		return fmt.Errorf("code attribute with empty bytecode")
	}
	code, err := r.bytes(codeLen)
	if err != nil {
		return err
	}
	if err := w.scanCode(code); err != nil {
		return err
	}
	handlers, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(handlers); i++ {
		if err := r.skip(6); err != nil { // start_pc, end_pc, handler_pc
			return err
		}
		catchIdx, err := r.u2()
		if err != nil {
			return err
		}
		if catchIdx == 0 { // finally handler, catches everything
			continue
		}
		caught, err := w.cp.className(catchIdx)
		if err != nil {
			return fmt.Errorf("exception handler %d: %w", i, err)
		}
		if err := decodeObjectName(caught, w.sink); err != nil {
			return err
		}
	}
	return w.readAttributes(r, scopeCode)
}

func (w *walker) readLocalVariables(r *byteReader, generic bool) error {
	n, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		if err := r.skip(6); err != nil { // start_pc, length, name_index
			return err
		}
		idx, err := r.u2()
		if err != nil {
			return err
		}
		text, err := w.cp.utf8(idx)
		if err != nil {
			return fmt.Errorf("local variable %d: %w", i, err)
		}
		if generic {
			err = decodeTypeSignature(text, w.sink)
		} else {
			err = decodeFieldDescriptor(text, w.sink)
		}
		if err != nil {
			return err
		}
		if err := r.skip(2); err != nil { // slot index
			return err
		}
	}
	return nil
}

func (w *walker) readAnnotations(r *byteReader) error {
	n, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		if err := w.readAnnotation(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) readAnnotation(r *byteReader) error {
	typeIdx, err := r.u2()
	if err != nil {
		return err
	}
	desc, err := w.cp.utf8(typeIdx)
	if err != nil {
		return fmt.Errorf("annotation type: %w", err)
	}
	if err := decodeFieldDescriptor(desc, w.sink); err != nil {
		return err
	}
	pairs, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(pairs); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return err
		}
		if _, err := w.cp.utf8(nameIdx); err != nil {
			return fmt.Errorf("annotation element name: %w", err)
		}
		if err := w.readElementValue(r); err != nil {
			return err
		}
	}
	return nil
}

// readElementValue consumes one annotation element value (JVMS 4.7.16.1).
// Enum values contribute their enum type; nested annotations recurse. Class
// literals ('c') name a class only as a value, not as a structural
// dependency, and are left alone.
func (w *walker) readElementValue(r *byteReader) error {
	tag, err := r.u1()
	if err != nil {
		return err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		return r.skip(2)
	case 'e':
		typeIdx, err := r.u2()
		if err != nil {
			return err
		}
		desc, err := w.cp.utf8(typeIdx)
		if err != nil {
			return fmt.Errorf("enum element value: %w", err)
		}
		if err := decodeFieldDescriptor(desc, w.sink); err != nil {
			return err
		}
		return r.skip(2) // const_name_index
	case '@':
		return w.readAnnotation(r)
	case '[':
		n, err := r.u2()
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			if err := w.readElementValue(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown annotation element value tag %q", tag)
	}
}
