// Package style compiles the user stylesheet and tracks the installed style.
//
// The source language is CSS plus the common SCSS conveniences: "$name: value;"
// variables, "//" line comments, "@import "file";" and nested rules with "&"
// parent references.
package style

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zeebo/blake3"
)

// StyleText is compiled, toolkit-ready style rules.
type StyleText string

// Compiler turns a stylesheet source file into StyleText.
type Compiler interface {
	Compile(path string) (StyleText, error)
}

var (
	// ErrImportCycle is returned when a file imports itself, directly or not.
	ErrImportCycle = errors.New("import cycle")
	// ErrUndefinedVariable is returned for a $reference with no definition.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrSyntax covers unbalanced braces, bad strings and stray declarations.
	ErrSyntax = errors.New("stylesheet syntax error")
)

const maxImportDepth = 16

var (
	importPattern  = regexp.MustCompile(`^\s*@import\s+["']([^"']+)["']\s*;?\s*$`)
	varDefPattern  = regexp.MustCompile(`^\s*\$([A-Za-z_][\w-]*)\s*:\s*([^;]*);\s*$`)
	varRefPattern  = regexp.MustCompile(`\$([A-Za-z_][\w-]*)`)
	blockComment   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	importSuffixes = []string{"", ".scss", ".css"}
	cacheEntries   = 32
	cacheTTL       = 30 * time.Minute
)

// SCSSLite is the built-in Compiler. Results are cached by the hash of the
// fully expanded source, so unchanged sheets skip recompilation.
type SCSSLite struct {
	cache *lru.LRU[string, StyleText]
}

// NewSCSSLite creates a compiler with an empty cache.
func NewSCSSLite() *SCSSLite {
	return &SCSSLite{
		cache: lru.NewLRU[string, StyleText](cacheEntries, nil, cacheTTL),
	}
}

// Compile reads path, expands imports and compiles the result.
func (c *SCSSLite) Compile(path string) (StyleText, error) {
	src, err := expand(path, 0, map[string]bool{})
	if err != nil {
		return "", err
	}

	sum := blake3.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	text, err := CompileSource(src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	c.cache.Add(key, text)
	return text, nil
}

// CompileSource compiles already expanded source text into flat CSS: one
// rule per line, nested rules resolved against their parent selectors and
// at-rule blocks kept with their contents.
func CompileSource(src string) (StyleText, error) {
	src = blockComment.ReplaceAllStringFunc(src, func(c string) string {
		return strings.Repeat("\n", strings.Count(c, "\n"))
	})

	vars := make(map[string]string)
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lineNo := i + 1
		line = stripLineComment(line)

		if m := varDefPattern.FindStringSubmatch(line); m != nil {
			val, err := substitute(m[2], vars, lineNo)
			if err != nil {
				return "", err
			}
			vars[m[1]] = strings.TrimSpace(val)
			lines[i] = ""
			continue
		}

		line, err := substitute(line, vars, lineNo)
		if err != nil {
			return "", err
		}
		lines[i] = line
	}

	root, err := parseBlocks(strings.Join(lines, "\n"))
	if err != nil {
		return "", err
	}

	var out []string
	for _, stmt := range root.decls {
		if !strings.HasPrefix(stmt, "@") {
			return "", fmt.Errorf("%w: declaration %q outside a rule", ErrSyntax, stmt)
		}
		out = append(out, stmt+";")
	}
	for _, b := range root.children {
		out = append(out, flatten(b, nil)...)
	}
	return StyleText(strings.Join(out, "\n")), nil
}

func substitute(s string, vars map[string]string, lineNo int) (string, error) {
	var missing string
	res := varRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1:]
		if v, ok := vars[name]; ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return ref
	})
	if missing != "" {
		return "", fmt.Errorf("%w: line %d: $%s", ErrUndefinedVariable, lineNo, missing)
	}
	return res, nil
}

// stripLineComment removes a trailing "//" comment. Quoted text and the
// "//" in "scheme://" are left alone.
func stripLineComment(line string) string {
	var quote rune
	prev := rune(0)
	for i, ch := range line {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '/' && prev == '/' && (i < 2 || line[i-2] != ':'):
			return line[:i-1]
		}
		prev = ch
	}
	return line
}

func expand(path string, depth int, visiting map[string]bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if depth > maxImportDepth {
		return "", fmt.Errorf("%w: import depth exceeds %d at %s", ErrImportCycle, maxImportDepth, abs)
	}
	if visiting[abs] {
		return "", fmt.Errorf("%w: %s", ErrImportCycle, abs)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read stylesheet: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		m := importPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		target, err := resolveImport(filepath.Dir(abs), m[1])
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", abs, i+1, err)
		}
		body, err := expand(target, depth+1, visiting)
		if err != nil {
			return "", err
		}
		lines[i] = body
	}
	return strings.Join(lines, "\n"), nil
}

func resolveImport(dir, name string) (string, error) {
	for _, suffix := range importSuffixes {
		candidate := filepath.Join(dir, name+suffix)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("import %q not found", name)
}
