package pipeline

import (
	"strings"

	"github.com/clindwh/clindwh/internal/platform/csvsource"
)

// Definition is the complete description of one importer variant: its
// identity, the column contract of its source extract, and the draft
// fields a row must fill to be importable.
type Definition struct {
	ID        string
	Version   string
	Separator rune
	Encoding  string
	Columns   []string
	Required  []Field
}

// ReaderOptions returns the csv source configuration for this variant,
// with separator and encoding overridable per site.
func (d Definition) ReaderOptions(separator, encoding string) csvsource.Options {
	opt := csvsource.Options{
		Separator: d.Separator,
		Encoding:  d.Encoding,
		Columns:   d.Columns,
	}
	if separator != "" {
		opt.Separator = []rune(separator)[0]
	}
	if encoding != "" {
		opt.Encoding = encoding
	}
	return opt
}

// contentHasher is satisfied by the pseudonymizer; the tag reuses the
// configured digest rather than carrying a second hash setup.
type contentHasher interface {
	HashContent(content string) string
}

// Tag composes the source-system code every row written by this
// importer carries: gfi_<id>V<version>_<hash of the definition>. The
// hash covers the column contract, so two builds with the same id and
// version but different columns are still distinguishable.
func (d Definition) Tag(hasher contentHasher) string {
	content := d.ID + "|" + d.Version + "|" + strings.Join(d.Columns, ",")
	return "gfi_" + d.ID + "V" + d.Version + "_" + hasher.HashContent(content)
}

// TagPrefix returns the part of a tag up to and excluding the version
// marker. The fact reconciler deletes only rows whose tag starts with
// this prefix, so an importer replaces rows written by any version of
// itself and never rows owned by another importer.
func TagPrefix(tag string) string {
	if i := strings.Index(tag, "V"); i > 0 {
		return tag[:i]
	}
	return tag
}
