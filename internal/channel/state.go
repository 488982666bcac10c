package channel

// Mode is the push channel mode for the mounted run.
type Mode string

const (
	ModeConnecting Mode = "connecting"
	ModeStreaming  Mode = "streaming"
	ModeFallback   Mode = "fallback"
	ModeFinished   Mode = "finished"
)

// State is the pure view of the push channel of a mount.
type State struct {
	Mode       Mode
	DoneStatus string
	Received   int
	LastError  string
}

// NewState returns the state of a freshly attached channel.
func NewState() State { return State{Mode: ModeConnecting} }

// OnEvent records a pushed event, accepted is false when the seq was already observed.
func (s State) OnEvent(accepted bool) State {
	if s.Mode == ModeConnecting {
		s.Mode = ModeStreaming
	}
	if accepted {
		s.Received++
	}
	return s
}

// OnDone records the platform terminal message.
func (s State) OnDone(status string) State {
	s.Mode = ModeFinished
	s.DoneStatus = status
	return s
}

// OnFailed records a subscription failure. Failures after the channel finished are ignored.
func (s State) OnFailed(err error) State {
	if s.Mode == ModeFinished {
		return s
	}
	s.Mode = ModeFallback
	if err != nil {
		s.LastError = err.Error()
	}
	return s
}

// OnClosed records that the subscription was closed locally.
func (s State) OnClosed() State {
	if s.Mode == ModeConnecting || s.Mode == ModeStreaming {
		s.Mode = ModeFinished
	}
	return s
}

// Open returns true while the subscription may still deliver events.
func (s State) Open() bool {
	return s.Mode == ModeConnecting || s.Mode == ModeStreaming
}
