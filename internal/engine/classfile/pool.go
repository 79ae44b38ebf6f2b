package classfile

import (
	"encoding/binary"
	"fmt"
)

// Constant pool tags (JVMS 4.4).
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// byteReader is a bounds-checked big-endian cursor over a class file.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) u1() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) bytes(n uint32) ([]byte, error) {
	if uint64(r.pos)+uint64(n) > uint64(len(r.data)) {
		return nil, fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	v := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return v, nil
}

func (r *byteReader) skip(n uint32) error {
	_, err := r.bytes(n)
	return err
}

// cpEntry is one parsed constant pool slot. Only the pieces the reference
// walk needs are retained: Utf8 text and the indices of Class, NameAndType
// and member entries.
type cpEntry struct {
	tag  byte
	ref1 uint16
	ref2 uint16
	text string
}

// constantPool is indexed 1..count-1 as the format prescribes; slot 0 is
// unused and Long/Double entries consume two slots.
type constantPool []cpEntry

func readConstantPool(r *byteReader) (constantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("constant pool count is zero")
	}
	cp := make(constantPool, count)
	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(uint32(n))
			if err != nil {
				return nil, err
			}
			e.text = string(raw)
		case tagInteger, tagFloat:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case tagLong, tagDouble:
			if err := r.skip(8); err != nil {
				return nil, err
			}
			if i+1 >= count {
				return nil, fmt.Errorf("wide constant at slot %d overruns pool of size %d", i, count)
			}
			cp[i] = e
			i++
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			if e.ref1, err = r.u2(); err != nil {
				return nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if e.ref1, err = r.u2(); err != nil {
				return nil, err
			}
			if e.ref2, err = r.u2(); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			if err := r.skip(3); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at slot %d", tag, i)
		}
		cp[i] = e
	}
	return cp, nil
}

func (cp constantPool) entry(index uint16, tag byte) (cpEntry, error) {
	if index == 0 || int(index) >= len(cp) {
		return cpEntry{}, fmt.Errorf("constant pool index %d out of range [1,%d)", index, len(cp))
	}
	e := cp[index]
	if e.tag != tag {
		return cpEntry{}, fmt.Errorf("constant pool slot %d holds tag %d, want %d", index, e.tag, tag)
	}
	return e, nil
}

func (cp constantPool) utf8(index uint16) (string, error) {
	e, err := cp.entry(index, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.text, nil
}

// className resolves a Class entry to its internal binary name.
func (cp constantPool) className(index uint16) (string, error) {
	e, err := cp.entry(index, tagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.ref1)
}

// memberRef resolves a Fieldref, Methodref or InterfaceMethodref entry to
// the owner's internal name and the member's type descriptor.
func (cp constantPool) memberRef(index uint16) (owner, descriptor string, err error) {
	if index == 0 || int(index) >= len(cp) {
		return "", "", fmt.Errorf("constant pool index %d out of range [1,%d)", index, len(cp))
	}
	e := cp[index]
	switch e.tag {
	case tagFieldref, tagMethodref, tagInterfaceMethodref:
	default:
		return "", "", fmt.Errorf("constant pool slot %d holds tag %d, want a member reference", index, e.tag)
	}
	if owner, err = cp.className(e.ref1); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.nameAndTypeDescriptor(e.ref2); err != nil {
		return "", "", err
	}
	return owner, descriptor, nil
}

// invokeDynamicDescriptor resolves an InvokeDynamic entry to its call site
// method descriptor. The bootstrap method side is deliberately left alone.
func (cp constantPool) invokeDynamicDescriptor(index uint16) (string, error) {
	e, err := cp.entry(index, tagInvokeDynamic)
	if err != nil {
		return "", err
	}
	return cp.nameAndTypeDescriptor(e.ref2)
}

func (cp constantPool) nameAndTypeDescriptor(index uint16) (string, error) {
	e, err := cp.entry(index, tagNameAndType)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.ref2)
}
