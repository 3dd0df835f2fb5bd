package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

const styleAttr = "style"

// StyleAttr returns the inline style attribute.
func (n *Node) StyleAttr() (string, bool) { return n.Attr(styleAttr) }

// SetStyleProperty sets prop to value with !important in the inline style,
// replacing any existing declaration of prop.
func (n *Node) SetStyleProperty(prop, value string) {
	decls := parseDeclarations(n.attrs[styleAttr])
	prop = strings.ToLower(prop)

	replaced := false
	for _, d := range decls {
		if strings.EqualFold(d.Property, prop) {
			d.Value = value
			d.Important = true
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, &css.Declaration{Property: prop, Value: value, Important: true})
	}
	n.SetAttr(styleAttr, renderDeclarations(decls))
}

// StyleProperty returns the inline value of prop and whether it is
// !important.
func (n *Node) StyleProperty(prop string) (value string, important, ok bool) {
	for _, d := range parseDeclarations(n.attrs[styleAttr]) {
		if strings.EqualFold(d.Property, prop) {
			value, important, ok = d.Value, d.Important, true
		}
	}
	return value, important, ok
}

func parseDeclarations(style string) []*css.Declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	// The parser only closes a declaration on ';'.
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil
	}
	return decls
}

func renderDeclarations(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " ")
}

// parseComputed maps a declaration block onto the computed fields the
// classifier reads. Used by the fixture loader.
func parseComputed(block string) ComputedStyle {
	var cs ComputedStyle
	for _, d := range parseDeclarations(block) {
		switch strings.ToLower(d.Property) {
		case "background-image":
			cs.BackgroundImage = d.Value
		case "background-color":
			cs.BackgroundColor = d.Value
		case "cursor":
			cs.Cursor = d.Value
		case "border-radius":
			cs.BorderRadius = d.Value
		}
	}
	return cs
}
