package bus

import "github.com/mattjoyce/islet/pkg/abi"

// BackendCommand is a request handled by the backend consumer.
type BackendCommand interface {
	backendCommand()
}

// ReloadConfig asks the host to run the reload sequence.
type ReloadConfig struct {
	Reason string
}

func (ReloadConfig) backendCommand() {}

// UISender is the abi.CommandSender handed to module constructors.
type UISender struct {
	bridge *Bridge[abi.UICommand]
}

// NewUISender wraps the UI pipeline's input end.
func NewUISender(b *Bridge[abi.UICommand]) *UISender {
	return &UISender{bridge: b}
}

func (s *UISender) Send(cmd abi.UICommand) {
	s.bridge.Send(cmd)
}
