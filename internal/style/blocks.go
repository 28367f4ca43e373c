package style

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// block is one "prelude { ... }" in source order. decls holds the
// semicolon-separated statements directly inside it.
type block struct {
	prelude  string
	line     int
	decls    []string
	children []*block
}

func (b *block) atRule() bool {
	return strings.HasPrefix(b.prelude, "@")
}

// parseBlocks builds the block tree of src. Text left over at the top level
// is kept in the root's decls for the caller to judge.
func parseBlocks(src string) (*block, error) {
	lexer := css.NewLexer(parse.NewInputString(src))
	root := &block{}
	stack := []*block{root}

	var buf strings.Builder
	take := func() string {
		s := strings.TrimSpace(buf.String())
		buf.Reset()
		return s
	}

	line := 1
	for {
		tt, data := lexer.Next()
		top := stack[len(stack)-1]

		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
			}
			if len(stack) > 1 {
				return nil, fmt.Errorf("%w: line %d: unclosed '{'", ErrSyntax, top.line)
			}
			if rest := take(); rest != "" {
				root.decls = append(root.decls, rest)
			}
			return root, nil

		case css.BadStringToken, css.BadURLToken:
			return nil, fmt.Errorf("%w: line %d: unterminated string or url", ErrSyntax, line)

		case css.CommentToken:

		case css.WhitespaceToken:
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}

		case css.LeftBraceToken:
			prelude := take()
			if prelude == "" {
				return nil, fmt.Errorf("%w: line %d: block without a selector", ErrSyntax, line)
			}
			b := &block{prelude: prelude, line: line}
			top.children = append(top.children, b)
			stack = append(stack, b)

		case css.RightBraceToken:
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: line %d: unexpected '}'", ErrSyntax, line)
			}
			if d := take(); d != "" {
				top.decls = append(top.decls, d)
			}
			stack = stack[:len(stack)-1]

		case css.SemicolonToken:
			if d := take(); d != "" {
				top.decls = append(top.decls, d)
			}

		default:
			buf.Write(data)
		}

		line += bytes.Count(data, []byte{'\n'})
	}
}

// flatten renders b and its descendants as top-level CSS statements.
// Nested rules are joined to their parents' selectors; an at-rule nested in a
// rule is hoisted and wraps the parent selector instead.
func flatten(b *block, parents []string) []string {
	if b.atRule() {
		inner := parents
		if strings.Contains(b.prelude, "keyframes") || strings.HasPrefix(b.prelude, "@font-face") {
			inner = nil
		}

		var body []string
		if len(b.decls) > 0 {
			if len(inner) > 0 {
				body = append(body, ruleText(strings.Join(inner, ", "), b.decls))
			} else {
				body = append(body, declText(b.decls))
			}
		}
		for _, c := range b.children {
			body = append(body, flatten(c, inner)...)
		}
		if len(body) == 0 {
			return []string{b.prelude + " {}"}
		}
		return []string{b.prelude + " { " + strings.Join(body, " ") + " }"}
	}

	selectors := nestSelectors(parents, b.prelude)
	var out []string
	if len(b.decls) > 0 {
		out = append(out, ruleText(strings.Join(selectors, ", "), b.decls))
	}
	for _, c := range b.children {
		out = append(out, flatten(c, selectors)...)
	}
	return out
}

func ruleText(selector string, decls []string) string {
	return selector + " { " + declText(decls) + " }"
}

func declText(decls []string) string {
	return strings.Join(decls, "; ") + ";"
}

// nestSelectors resolves a nested selector list against its parents. "&"
// stands for the parent; without it the child is a descendant.
func nestSelectors(parents []string, prelude string) []string {
	children := splitSelectors(prelude)
	if len(parents) == 0 {
		return children
	}
	out := make([]string, 0, len(parents)*len(children))
	for _, p := range parents {
		for _, c := range children {
			if strings.Contains(c, "&") {
				out = append(out, strings.ReplaceAll(c, "&", p))
			} else {
				out = append(out, p+" "+c)
			}
		}
	}
	return out
}

// splitSelectors splits a selector list on commas outside parentheses and
// brackets.
func splitSelectors(list string) []string {
	var out []string
	depth, start := 0, 0
	for i, ch := range list {
		switch ch {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(list[start:]))
}
