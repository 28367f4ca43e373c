package abi

import "fmt"

//go:generate mockgen -destination=mocks/mock_abi.go -package=mocks github.com/mattjoyce/islet/pkg/abi Module,CommandSender

// ActivityID names a widget surface within a module's namespace.
type ActivityID struct {
	Module string
	Name   string
}

func (id ActivityID) String() string {
	return fmt.Sprintf("%s/%s", id.Module, id.Name)
}

// Widget is the surface a module contributes to the panel.
// SetProperty and Property are only called from the UI loop.
type Widget interface {
	SetProperty(name string, value float64)
	Property(name string) (float64, bool)
	View() string
}

// UICommand is a request from a module to the UI loop.
// The set of commands is closed: only types in this package implement it.
type UICommand interface {
	uiCommand()
}

// AddActivity registers a widget with the layout.
type AddActivity struct {
	ID     ActivityID
	Widget Widget
}

// RemoveActivity removes a previously added widget.
type RemoveActivity struct {
	ID ActivityID
}

func (AddActivity) uiCommand()    {}
func (RemoveActivity) uiCommand() {}

// Style properties the host applies to every activity widget.
const (
	PropMinimalHeight = "config-minimal-height"
	PropBlurRadius    = "config-blur-radius"
)
