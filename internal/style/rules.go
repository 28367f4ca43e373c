package style

import (
	_ "embed"
	"strings"
)

// fallbackSource is installed at startup, beneath the user stylesheet.
//
//go:embed default.css
var fallbackSource string

// Fallback returns the built-in style.
func Fallback() StyleText {
	text, err := CompileSource(fallbackSource)
	if err != nil {
		panic("style: built-in stylesheet does not compile: " + err.Error())
	}
	return text
}

// Rule is one "selector { decl; ... }" block.
type Rule struct {
	Selector     string
	Declarations map[string]string
}

// Rules returns the top-level rules of compiled text in source order.
// At-rule blocks and malformed declarations are skipped.
func Rules(text StyleText) []Rule {
	root, err := parseBlocks(string(text))
	if err != nil {
		return nil
	}

	var rules []Rule
	for _, b := range root.children {
		if b.atRule() {
			continue
		}
		r := Rule{
			Selector:     b.prelude,
			Declarations: make(map[string]string),
		}
		for _, decl := range b.decls {
			name, value, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			name, value = strings.TrimSpace(name), strings.TrimSpace(value)
			if name == "" || value == "" {
				continue
			}
			r.Declarations[name] = value
		}
		rules = append(rules, r)
	}
	return rules
}

// Merge flattens layers into per-selector declarations. Later layers win.
func Merge(layers ...StyleText) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, layer := range layers {
		for _, r := range Rules(layer) {
			for _, sel := range strings.Split(r.Selector, ",") {
				sel = strings.TrimSpace(sel)
				if sel == "" {
					continue
				}
				if out[sel] == nil {
					out[sel] = make(map[string]string)
				}
				for k, v := range r.Declarations {
					out[sel][k] = v
				}
			}
		}
	}
	return out
}
