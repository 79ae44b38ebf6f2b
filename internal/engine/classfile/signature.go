package classfile

import "fmt"

// Generic signature grammar (JVMS 4.7.9.1). Signatures extend descriptors
// with type parameters, type arguments, wildcards, type variables and
// inner-class suffixes. Erasure means the runtime never needs them, but the
// class names buried inside are dependencies all the same.
//
// Type variables ("TX;") and unbounded wildcards ("*") name no class and
// emit nothing.

// decodeClassOrMethodSignature decodes the Signature attribute of a class
// (formal type parameters, superclass, interfaces) or of a method (formal
// type parameters, arguments, return type, throws).
func decodeClassOrMethodSignature(sig string, sink *Collector) error {
	p := &sigParser{s: sig, sink: sink}
	if p.peek() == '<' {
		if err := p.typeParams(); err != nil {
			return p.fail(err)
		}
	}
	if p.peek() == '(' {
		p.pos++
		for p.peek() != ')' {
			if p.pos >= len(p.s) {
				return p.fail(fmt.Errorf("unterminated argument list"))
			}
			if err := p.javaType(); err != nil {
				return p.fail(err)
			}
		}
		p.pos++
		if p.peek() == 'V' {
			p.pos++
		} else if err := p.javaType(); err != nil {
			return p.fail(err)
		}
		for p.peek() == '^' {
			p.pos++
			var err error
			if p.peek() == 'T' {
				err = p.typeVariable()
			} else {
				err = p.classType()
			}
			if err != nil {
				return p.fail(err)
			}
		}
	} else {
		if err := p.classType(); err != nil {
			return p.fail(err)
		}
		for p.pos < len(p.s) {
			if err := p.classType(); err != nil {
				return p.fail(err)
			}
		}
	}
	return p.done()
}

// decodeTypeSignature decodes the Signature attribute of a field, record
// component or local variable: a single reference type.
func decodeTypeSignature(sig string, sink *Collector) error {
	p := &sigParser{s: sig, sink: sink}
	if err := p.referenceType(); err != nil {
		return p.fail(err)
	}
	return p.done()
}

type sigParser struct {
	s    string
	pos  int
	sink *Collector
}

func (p *sigParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) expect(ch byte) error {
	if p.peek() != ch {
		return fmt.Errorf("expected %q", ch)
	}
	p.pos++
	return nil
}

func (p *sigParser) fail(err error) error {
	return fmt.Errorf("malformed signature %q at offset %d: %w", p.s, p.pos, err)
}

func (p *sigParser) done() error {
	if p.pos != len(p.s) {
		return p.fail(fmt.Errorf("trailing data %q", p.s[p.pos:]))
	}
	return nil
}

// typeParams parses "<A:Bound:Bound...B:...>". The class bound after the
// first colon may be empty when only interface bounds are present.
func (p *sigParser) typeParams() error {
	p.pos++
	for p.peek() != '>' {
		if p.pos >= len(p.s) {
			return fmt.Errorf("unterminated type parameter list")
		}
		if err := p.identifier(':'); err != nil {
			return err
		}
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			if err := p.referenceType(); err != nil {
				return err
			}
		}
		for p.peek() == ':' {
			p.pos++
			if err := p.referenceType(); err != nil {
				return err
			}
		}
	}
	p.pos++
	return nil
}

// javaType parses a primitive or a reference type.
func (p *sigParser) javaType() error {
	switch p.peek() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		p.pos++
		return nil
	}
	return p.referenceType()
}

func (p *sigParser) referenceType() error {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		return p.typeVariable()
	case '[':
		p.pos++
		return p.javaType()
	case 0:
		return fmt.Errorf("unexpected end of signature")
	default:
		return fmt.Errorf("unexpected character %q", p.peek())
	}
}

// classType parses "Lpkg/Outer<Args>.Inner<Args>...;". Only the leading
// package-qualified name is a dependency; inner-class suffixes refine a type
// the outer-class reduction would collapse anyway.
func (p *sigParser) classType() error {
	if err := p.expect('L'); err != nil {
		return err
	}
	start := p.pos
	for {
		switch p.peek() {
		case ';', '<', '.':
		case 0:
			return fmt.Errorf("unterminated class type")
		default:
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return fmt.Errorf("empty class type")
	}
	p.sink.Add(NameFromInternal(p.s[start:p.pos]))
	if p.peek() == '<' {
		if err := p.typeArgs(); err != nil {
			return err
		}
	}
	for p.peek() == '.' {
		p.pos++
		for {
			switch p.peek() {
			case ';', '<', '.':
			case 0:
				return fmt.Errorf("unterminated inner class suffix")
			default:
				p.pos++
				continue
			}
			break
		}
		if p.peek() == '<' {
			if err := p.typeArgs(); err != nil {
				return err
			}
		}
	}
	return p.expect(';')
}

func (p *sigParser) typeArgs() error {
	p.pos++
	for p.peek() != '>' {
		switch p.peek() {
		case '*':
			p.pos++
		case '+', '-':
			p.pos++
			if err := p.referenceType(); err != nil {
				return err
			}
		case 0:
			return fmt.Errorf("unterminated type argument list")
		default:
			if err := p.referenceType(); err != nil {
				return err
			}
		}
	}
	p.pos++
	return nil
}

func (p *sigParser) typeVariable() error {
	if err := p.expect('T'); err != nil {
		return err
	}
	return p.identifier(';')
}

// identifier consumes a non-empty run of characters up to and including the
// terminator.
func (p *sigParser) identifier(term byte) error {
	start := p.pos
	for p.peek() != term {
		if p.pos >= len(p.s) {
			return fmt.Errorf("unterminated identifier")
		}
		p.pos++
	}
	if p.pos == start {
		return fmt.Errorf("empty identifier")
	}
	p.pos++
	return nil
}
