// # internal/engine/extract/tapestry.go
package extract

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// constructorPattern matches OGNL-style constructor calls in Tapestry
// script expressions: new com.x.Y(...).
var constructorPattern = regexp.MustCompile(`\bnew\s+([A-Za-z_$][0-9A-Za-z_$]*(?:\.[A-Za-z_$][0-9A-Za-z_$]*)+)\s*\(`)

// Tapestry extracts class references from page (.page), component (.jwc)
// and script (.script) specifications. Specifications name classes in
// class/type attributes; script files additionally construct objects
// inside OGNL expressions, both in element bodies and attribute values.
func Tapestry(r io.Reader, filePath string, filter classfile.Filter) ([]classfile.ClassName, error) {
	sink := classfile.NewCollector(filter)
	dec := newDecoder(r)
	scanExpressions := strings.HasSuffix(filePath, ".script")

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			werr := errors.Wrap(err, errors.CodeIO, "malformed tapestry specification")
			return nil, errors.AddContext(werr, errors.CtxPath, filePath)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				switch {
				case attr.Name.Local == "class" || attr.Name.Local == "type":
					addCandidate(sink, attr.Value)
				case scanExpressions:
					addConstructors(sink, attr.Value)
				}
			}
		case xml.CharData:
			if scanExpressions {
				addConstructors(sink, string(t))
			}
		}
	}
	return sink.Names(), nil
}

func addConstructors(sink *classfile.Collector, text string) {
	for _, m := range constructorPattern.FindAllStringSubmatch(text, -1) {
		addCandidate(sink, m[1])
	}
}
