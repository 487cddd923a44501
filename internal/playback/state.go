package playback

// State is the playback state.
type State int

const (
	Stopped State = iota
	Starting
	Playing
	Stopping
	Interrupted
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	case Stopping:
		return "stopping"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Active reports whether the state holds the engine and session.
func (s State) Active() bool {
	return s == Starting || s == Playing
}

// StateNames returns the name of every state, in declaration order.
func StateNames() []string {
	return []string{
		Stopped.String(),
		Starting.String(),
		Playing.String(),
		Stopping.String(),
		Interrupted.String(),
	}
}
