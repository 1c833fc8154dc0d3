// Package inventory groups catalog entities into file shards, loads
// those shards from store or disk, and reconciles incoming data with a
// baseline via a three-way merge. Grounded on
// original_source/rechu/inventory/{base,products,shops}.py.
package inventory

import (
	"strings"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// templatePart is one literal-plus-optional-field chunk of a parsed
// Template, mirroring one tuple yielded by Python's
// string.Formatter.parse.
type templatePart struct {
	literal  string
	field    string
	hasField bool
}

// Template is a brace-delimited filename template — `{field}`
// placeholders interspersed with literal text, per §6's "Filename
// template grammar". A template with zero fields describes a single
// degenerate shard (e.g. the shops file).
type Template struct {
	raw   string
	parts []templatePart
}

// ParseTemplate parses raw into its literal/field parts. `{{` and `}}`
// escape a literal brace; an unmatched single brace is a Validation
// error. This is a hand-rolled parser rather than text/template: the
// grammar here is a flat sequence of `{field}` placeholders with no
// actions, pipelines, or control flow, so reaching for a general
// template engine (stdlib or third-party) would pull in far more than
// this format needs — no pack example reaches for one to name a file.
func ParseTemplate(raw string) (*Template, error) {
	var parts []templatePart
	var literal strings.Builder
	runes := []rune(raw)

	for i := 0; i < len(runes); {
		switch runes[i] {
		case '{':
			if i+1 < len(runes) && runes[i+1] == '{' {
				literal.WriteRune('{')
				i += 2
				continue
			}
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, apperrors.Validation("unterminated field placeholder in template: " + raw)
			}
			parts = append(parts, templatePart{literal: literal.String(), field: string(runes[i+1 : end]), hasField: true})
			literal.Reset()
			i = end + 1
		case '}':
			if i+1 < len(runes) && runes[i+1] == '}' {
				literal.WriteRune('}')
				i += 2
				continue
			}
			return nil, apperrors.Validation("unmatched '}' in template: " + raw)
		default:
			literal.WriteRune(runes[i])
			i++
		}
	}
	parts = append(parts, templatePart{literal: literal.String()})
	return &Template{raw: raw, parts: parts}, nil
}

// Fields lists the field names the template references, in order of
// first appearance (duplicates kept, matching Formatter.parse's
// behavior — a template may reference the same field twice).
func (t *Template) Fields() []string {
	var fields []string
	for _, p := range t.parts {
		if p.hasField {
			fields = append(fields, p.field)
		}
	}
	return fields
}

// Format substitutes values for each field placeholder, leaving an
// empty string for any field the caller didn't supply.
func (t *Template) Format(values map[string]string) string {
	var b strings.Builder
	for _, p := range t.parts {
		b.WriteString(p.literal)
		if p.hasField {
			b.WriteString(values[p.field])
		}
	}
	return b.String()
}

var globMetaChars = "*?["

// GlobPattern builds a filepath.Match-compatible glob that matches any
// filename the template could produce: literal segments joined by `*`,
// with glob metacharacters in the literal text escaped so they aren't
// misread as wildcards themselves.
func (t *Template) GlobPattern() string {
	var b strings.Builder
	for i, p := range t.parts {
		if i > 0 {
			b.WriteString("*")
		}
		b.WriteString(escapeGlob(p.literal))
	}
	return b.String()
}

func escapeGlob(literal string) string {
	if !strings.ContainsAny(literal, globMetaChars) {
		return literal
	}
	var b strings.Builder
	for _, r := range literal {
		if strings.ContainsRune(globMetaChars, r) {
			b.WriteRune('[')
			b.WriteRune(r)
			b.WriteRune(']')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
