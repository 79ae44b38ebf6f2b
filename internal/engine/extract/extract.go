// # internal/engine/extract/extract.go

// Package extract pulls class references out of framework configuration
// files. Spring contexts, Hibernate mappings and Tapestry specifications
// all name classes in XML; each extractor feeds the same collector the
// binary class decoder uses, so nesting reduction and package filtering
// behave identically for both kinds of artifact.
package extract

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// Func reads one configuration file and returns the classes it references.
type Func func(r io.Reader, filePath string, filter classfile.Filter) ([]classfile.ClassName, error)

// Kind names the framework family an extractor serves for a path, or ""
// when the file type carries no class references. The scanner uses it to
// label decode metrics.
func Kind(filePath string) string {
	name := filepath.Base(filePath)
	switch {
	case strings.HasPrefix(name, "applicationContext") && strings.HasSuffix(name, ".xml"):
		return "spring"
	case strings.HasSuffix(name, ".hbm.xml"):
		return "hibernate"
	case strings.HasSuffix(name, ".page"), strings.HasSuffix(name, ".jwc"), strings.HasSuffix(name, ".script"):
		return "tapestry"
	}
	return ""
}

// ForFile picks the extractor for a path by its file name, or nil when the
// file type carries no class references.
func ForFile(filePath string) Func {
	switch Kind(filePath) {
	case "spring":
		return Spring
	case "hibernate":
		return Hibernate
	case "tapestry":
		return Tapestry
	}
	return nil
}

// classNamePattern matches a dotted identifier chain: at least one package
// segment followed by a simple name. Bare words ("long", component aliases)
// are not class references.
var classNamePattern = regexp.MustCompile(`^[A-Za-z_$][0-9A-Za-z_$]*(\.[A-Za-z_$][0-9A-Za-z_$]*)+$`)

func looksLikeClassName(s string) bool {
	return classNamePattern.MatchString(s)
}

// addCandidate feeds one attribute or text value to the sink when it is
// shaped like a fully qualified class name.
func addCandidate(sink *classfile.Collector, value string) {
	v := strings.TrimSpace(value)
	if looksLikeClassName(v) {
		sink.Add(classfile.NameFromBinary(v))
	}
}

// newDecoder returns a lenient XML decoder. Strict mode rejects the DTD
// entities Tapestry and Hibernate files routinely carry.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	return dec
}
