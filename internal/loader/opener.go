package loader

import (
	"plugin"
)

// Library is an opened module file.
type Library interface {
	Lookup(symbol string) (any, error)
}

// Opener opens module files. NativeOpener is the production implementation.
type Opener interface {
	Open(path string) (Library, error)
}

// NativeOpener opens Go plugins built with -buildmode=plugin.
type NativeOpener struct{}

func (NativeOpener) Open(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return nativeLibrary{p: p}, nil
}

type nativeLibrary struct {
	p *plugin.Plugin
}

func (l nativeLibrary) Lookup(symbol string) (any, error) {
	return l.p.Lookup(symbol)
}
