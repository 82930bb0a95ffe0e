package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ParseStyle parses an inline style attribute into its declarations.
func ParseStyle(attr string) ([]*css.Declaration, error) {
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return nil, nil
	}
	// The parser only closes a declaration on ';' or '}'.
	if !strings.HasSuffix(attr, ";") {
		attr += ";"
	}
	return parser.ParseDeclarations(attr)
}

// StyleValue returns the value of property in an inline style attribute.
// The last declaration wins, as in the browser.
func StyleValue(attr, property string) (string, error) {
	decls, err := ParseStyle(attr)
	if err != nil {
		return "", err
	}
	var v string
	for _, d := range decls {
		if strings.EqualFold(d.Property, property) {
			v = d.Value
		}
	}
	return v, nil
}

// SetStyleValue returns attr with property set to value, replacing any
// previous declarations of it.
func SetStyleValue(attr, property, value string) (string, error) {
	decls, err := ParseStyle(attr)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(decls)+1)
	for _, d := range decls {
		if strings.EqualFold(d.Property, property) {
			continue
		}
		parts = append(parts, formatDecl(d))
	}
	parts = append(parts, formatDecl(&css.Declaration{Property: property, Value: value}))
	return strings.Join(parts, " "), nil
}

func formatDecl(d *css.Declaration) string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important;"
	}
	return d.Property + ": " + d.Value + ";"
}
