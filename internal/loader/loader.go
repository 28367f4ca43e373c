// Package loader discovers module shared objects and constructs modules.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/pkg/abi"
)

// ErrNoDescriptor is returned when a library does not export a usable root symbol.
var ErrNoDescriptor = errors.New("module root descriptor not found")

// Entry is a discovered, not yet constructed module.
type Entry struct {
	Name string
	Path string
	New  abi.Constructor
}

// Constructors maps module name to its discovered entry.
type Constructors map[string]Entry

// Names returns the discovered names, sorted.
func (c Constructors) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Inserter is the part of the registry Instantiate writes to.
type Inserter interface {
	Insert(name string, m abi.Module) error
}

// Hooks observe non-fatal failures. Nil hooks are ignored.
type Hooks struct {
	LoadFailed      func(path string, err error)
	ConstructFailed func(name string, err error)
}

// Loader discovers and instantiates modules.
type Loader struct {
	opener Opener
	logger *slog.Logger
	hooks  Hooks
}

// New creates a Loader. A nil opener means NativeOpener.
func New(opener Opener, logger *slog.Logger, hooks Hooks) *Loader {
	if opener == nil {
		opener = NativeOpener{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opener: opener, logger: logger, hooks: hooks}
}

// LibraryExt is the shared-library extension for the running platform.
func LibraryExt() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// Discover inspects every regular file in dir with the platform library
// extension. Files are visited in lexical order. A file that cannot be opened
// or does not carry a valid descriptor is logged and skipped. When two files
// declare the same name the first one wins.
//
// Only a directory that cannot be read is an error.
func (l *Loader) Discover(dir string) (Constructors, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read modules dir %s: %w", dir, err)
	}

	ext := LibraryExt()
	ctors := make(Constructors)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isRegular(path, e) {
			continue
		}

		desc, err := l.load(path)
		if err != nil {
			l.logger.Warn("failed to load module", "path", path, "error", err)
			if l.hooks.LoadFailed != nil {
				l.hooks.LoadFailed(path, err)
			}
			continue
		}

		if existing, ok := ctors[desc.Name]; ok {
			l.logger.Warn(
				"duplicate module ignored (keeping first discovered)",
				"module", desc.Name,
				"ignored_path", path,
				"kept_path", existing.Path,
			)
			continue
		}

		ctors[desc.Name] = Entry{Name: desc.Name, Path: path, New: desc.New}
		l.logger.Info("discovered module", "module", desc.Name, "path", path)
	}

	return ctors, nil
}

func (l *Loader) load(path string) (desc *abi.Descriptor, err error) {
	lib, err := l.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	sym, err := lib.Lookup(abi.RootSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDescriptor, err)
	}

	switch v := sym.(type) {
	case *abi.Descriptor:
		desc = v
	case **abi.Descriptor:
		if v != nil {
			desc = *v
		}
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrNoDescriptor, abi.RootSymbol, sym)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// Instantiate constructs the selected modules and inserts them into reg.
//
// With an "all" selection constructors run in map order. With an explicit
// list they run in list order and names that were not discovered are logged
// and skipped. A constructor that fails or panics excludes its module.
// The returned order holds exactly the registered names.
func (l *Loader) Instantiate(ctors Constructors, sel config.LoadedModules, sender abi.CommandSender, reg Inserter) []string {
	var names []string
	if sel.All {
		for name := range ctors {
			names = append(names, name)
		}
	} else {
		names = sel.Names
	}

	order := make([]string, 0, len(names))
	for _, name := range names {
		entry, ok := ctors[name]
		if !ok {
			l.logger.Info("configured module not found, skipping", "module", name)
			continue
		}

		m, err := construct(entry, sender)
		if err == nil {
			err = reg.Insert(name, m)
		}
		if err != nil {
			l.logger.Error("failed to construct module", "module", name, "path", entry.Path, "error", err)
			if l.hooks.ConstructFailed != nil {
				l.hooks.ConstructFailed(name, err)
			}
			continue
		}
		order = append(order, name)
		l.logger.Info("constructed module", "module", name)
	}
	return order
}

func construct(entry Entry, sender abi.CommandSender) (m abi.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	m, err = entry.New(sender)
	if err == nil && m == nil {
		err = errors.New("constructor returned no module")
	}
	return m, err
}

func isRegular(path string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
