// Package abi is the contract between the islet host and its modules.
//
// A module is a Go plugin (built with -buildmode=plugin) that exports a
// variable named by RootSymbol of type Descriptor:
//
//	var IsletModule = abi.Descriptor{
//		Version: abi.Version,
//		Name:    "clock",
//		New:     newClock,
//	}
//
// The host checks Version before reading any other field of the descriptor.
// Bump Version whenever a type in this package changes shape.
package abi

import (
	"errors"
	"fmt"
)

// Version is the descriptor layout version this host understands.
const Version uint32 = 1

// RootSymbol is the exported symbol every module must define.
const RootSymbol = "IsletModule"

var (
	// ErrVersionMismatch is returned when a descriptor carries a different Version.
	ErrVersionMismatch = errors.New("module abi version mismatch")
	// ErrInvalidDescriptor is returned when a descriptor is missing required fields.
	ErrInvalidDescriptor = errors.New("invalid module descriptor")
)

// Module is the capability set every module instance provides.
//
// UpdateConfig receives the module's config sub-tree serialized as YAML. A
// module that fails to parse it must keep its previous configuration.
// RestartProducers must stop all background work started by a previous call
// before starting new work.
type Module interface {
	Init()
	UpdateConfig(blob string) error
	RestartProducers()
}

// CommandSender is handed to a module's constructor. Send never blocks.
type CommandSender interface {
	Send(cmd UICommand)
}

// Constructor builds a module instance.
type Constructor func(sender CommandSender) (Module, error)

// Descriptor is the root value exported by a module library.
type Descriptor struct {
	Version uint32
	Name    string
	New     Constructor
}

// Validate checks the version tag first, then the remaining fields.
func (d *Descriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	if d.Version != Version {
		return fmt.Errorf("%w: module has %d, host expects %d", ErrVersionMismatch, d.Version, Version)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if d.New == nil {
		return fmt.Errorf("%w: constructor is required", ErrInvalidDescriptor)
	}
	return nil
}
