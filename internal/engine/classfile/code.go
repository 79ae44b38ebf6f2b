package classfile

import "fmt"

// JVM opcodes with type-bearing operands (JVMS 6.5). Everything else only
// matters for its operand width.
const (
	opTableswitch     = 0xaa
	opLookupswitch    = 0xab
	opGetstatic       = 0xb2
	opPutfield        = 0xb5
	opInvokevirtual   = 0xb6
	opInvokestatic    = 0xb8
	opInvokeinterface = 0xb9
	opInvokedynamic   = 0xba
	opNew             = 0xbb
	opAnewarray       = 0xbd
	opCheckcast       = 0xc0
	opInstanceof      = 0xc1
	opWide            = 0xc4
	opMultianewarray  = 0xc5
	opGotoW           = 0xc8
	opJsrW            = 0xc9
	opIinc            = 0x84
)

// scanCode walks a method's bytecode linearly, decoding each instruction
// just far enough to find its successor and to resolve any class, field,
// method or call-site operand. ldc and friends are skipped: a class constant
// loaded onto the stack is a value, not a structural dependency.
func (w *walker) scanCode(code []byte) error {
	r := &byteReader{data: code}
	for r.pos < len(code) {
		base := r.pos
		op, err := r.u1()
		if err != nil {
			return err
		}
		switch {
		case op <= 0x0f, // nop, consts
			op >= 0x1a && op <= 0x35, // short-form loads, array loads
			op >= 0x3b && op <= 0x83, // short-form stores, stack, arithmetic
			op >= 0x85 && op <= 0x98, // conversions, comparisons
			op >= 0xac && op <= 0xb1, // returns
			op == 0xbe, op == 0xbf, op == 0xc2, op == 0xc3:
			// no operands

		case op == 0x10, op == 0x12, // bipush, ldc
			op >= 0x15 && op <= 0x19, // loads
			op >= 0x36 && op <= 0x3a, // stores
			op == 0xa9, op == 0xbc: // ret, newarray
			err = r.skip(1)

		case op == 0x11, op == 0x13, op == 0x14, op == opIinc, // sipush, ldc_w, ldc2_w, iinc
			op >= 0x99 && op <= 0xa8, // branches, goto, jsr
			op == 0xc6, op == 0xc7: // ifnull, ifnonnull
			err = r.skip(2)

		case op == opGotoW, op == opJsrW:
			err = r.skip(4)

		case op == opNew, op == opAnewarray, op == opCheckcast, op == opInstanceof:
			err = w.classOperand(r)

		case op >= opGetstatic && op <= opPutfield:
			err = w.memberOperand(r, false)

		case op >= opInvokevirtual && op <= opInvokestatic:
			err = w.memberOperand(r, true)

		case op == opInvokeinterface:
			if err = w.memberOperand(r, true); err == nil {
				err = r.skip(2) // count, zero
			}

		case op == opInvokedynamic:
			err = w.callSiteOperand(r)

		case op == opMultianewarray:
			if err = w.classOperand(r); err == nil {
				err = r.skip(1) // dimensions
			}

		case op == opTableswitch:
			if err = r.skip(padding(base)); err != nil {
				break
			}
			if err = r.skip(4); err != nil { // default
				break
			}
			var lo, hi uint32
			if lo, err = r.u4(); err != nil {
				break
			}
			if hi, err = r.u4(); err != nil {
				break
			}
			low, high := int32(lo), int32(hi)
			if high < low {
				return fmt.Errorf("tableswitch at offset %d: high %d below low %d", base, high, low)
			}
			err = skipWide(r, (int64(high)-int64(low)+1)*4)

		case op == opLookupswitch:
			if err = r.skip(padding(base)); err != nil {
				break
			}
			if err = r.skip(4); err != nil { // default
				break
			}
			var n uint32
			if n, err = r.u4(); err != nil {
				break
			}
			pairs := int32(n)
			if pairs < 0 {
				return fmt.Errorf("lookupswitch at offset %d: negative pair count", base)
			}
			err = skipWide(r, int64(pairs)*8)

		case op == opWide:
			var sub byte
			if sub, err = r.u1(); err != nil {
				break
			}
			switch {
			case sub == opIinc:
				err = r.skip(4)
			case sub >= 0x15 && sub <= 0x19, sub >= 0x36 && sub <= 0x3a, sub == 0xa9:
				err = r.skip(2)
			default:
				return fmt.Errorf("wide prefix on opcode 0x%02x at offset %d", sub, base)
			}

		default:
			return fmt.Errorf("illegal opcode 0x%02x at offset %d", op, base)
		}
		if err != nil {
			return fmt.Errorf("bytecode at offset %d: %w", base, err)
		}
	}
	return nil
}

// padding returns the switch operand padding: operands start at the next
// 4-byte boundary counted from the start of the code array.
func padding(opcodeAt int) uint32 {
	return uint32(3 - opcodeAt%4)
}

// skipWide skips n bytes where n may exceed what a uint32 skip accepts.
func skipWide(r *byteReader, n int64) error {
	if n > int64(len(r.data)-r.pos) {
		return fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	r.pos += int(n)
	return nil
}

// classOperand resolves a two-byte constant pool index to a Class entry.
// The entry may hold an array descriptor (anewarray of arrays, checkcast to
// an array type), which decodes down to its element class.
func (w *walker) classOperand(r *byteReader) error {
	idx, err := r.u2()
	if err != nil {
		return err
	}
	name, err := w.cp.className(idx)
	if err != nil {
		return err
	}
	return decodeObjectName(name, w.sink)
}

// memberOperand resolves a field or method reference: the owner class plus
// every class in the member's type descriptor.
func (w *walker) memberOperand(r *byteReader, method bool) error {
	idx, err := r.u2()
	if err != nil {
		return err
	}
	owner, desc, err := w.cp.memberRef(idx)
	if err != nil {
		return err
	}
	if err := decodeObjectName(owner, w.sink); err != nil {
		return err
	}
	if method {
		return decodeMethodDescriptor(desc, w.sink)
	}
	return decodeFieldDescriptor(desc, w.sink)
}

// callSiteOperand resolves an invokedynamic instruction. Only the call
// site's method descriptor contributes references; the bootstrap method and
// its arguments live behind BootstrapMethods and stay out of the result.
func (w *walker) callSiteOperand(r *byteReader) error {
	idx, err := r.u2()
	if err != nil {
		return err
	}
	desc, err := w.cp.invokeDynamicDescriptor(idx)
	if err != nil {
		return err
	}
	if err := decodeMethodDescriptor(desc, w.sink); err != nil {
		return err
	}
	return r.skip(2) // two reserved zero bytes
}
