// # internal/engine/extract/hibernate.go
package extract

import (
	"encoding/xml"
	"io"

	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// hibernateClassElements are the mapping elements whose name attribute is a
// class. On every other element, name is a property name.
var hibernateClassElements = map[string]bool{
	"class":           true,
	"subclass":        true,
	"joined-subclass": true,
	"union-subclass":  true,
}

// Hibernate extracts class references from a *.hbm.xml mapping file.
// Entity classes carry their name on mapping elements; custom types and
// persisters appear as fully qualified attribute values.
func Hibernate(r io.Reader, filePath string, filter classfile.Filter) ([]classfile.ClassName, error) {
	sink := classfile.NewCollector(filter)
	dec := newDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			werr := errors.Wrap(err, errors.CodeIO, "malformed hibernate mapping")
			return nil, errors.AddContext(werr, errors.CtxPath, filePath)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "class", "type", "persister":
				addCandidate(sink, attr.Value)
			case "name":
				if hibernateClassElements[start.Name.Local] {
					addCandidate(sink, attr.Value)
				}
			}
		}
	}
	return sink.Names(), nil
}
