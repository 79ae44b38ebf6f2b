// # internal/engine/extract/spring.go
package extract

import (
	"encoding/xml"
	"io"

	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// springAttrs are the bean-definition attributes whose values name classes.
var springAttrs = map[string]bool{
	"class":      true,
	"type":       true,
	"value-type": true,
	"key-type":   true,
}

// Spring extracts class references from an applicationContext*.xml bean
// definition. Classes appear in bean attributes and sometimes as literal
// text inside <value> and <constructor-arg> elements.
func Spring(r io.Reader, filePath string, filter classfile.Filter) ([]classfile.ClassName, error) {
	sink := classfile.NewCollector(filter)
	dec := newDecoder(r)

	textDepth := 0 // nesting inside <value>/<constructor-arg>
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			werr := errors.Wrap(err, errors.CodeIO, "malformed spring context")
			return nil, errors.AddContext(werr, errors.CtxPath, filePath)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				if springAttrs[attr.Name.Local] {
					addCandidate(sink, attr.Value)
				}
			}
			if t.Name.Local == "value" || t.Name.Local == "constructor-arg" {
				textDepth++
			}
		case xml.EndElement:
			if (t.Name.Local == "value" || t.Name.Local == "constructor-arg") && textDepth > 0 {
				textDepth--
			}
		case xml.CharData:
			if textDepth > 0 {
				addCandidate(sink, string(t))
			}
		}
	}
	return sink.Names(), nil
}
