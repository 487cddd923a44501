package remote

import (
	"fmt"
	"strings"
)

// Command is a transport command received from the remote-control surface.
type Command string

const (
	CommandPlay   Command = "play"
	CommandPause  Command = "pause"
	CommandStop   Command = "stop"
	CommandToggle Command = "toggle"
)

// Commands lists every supported command.
var Commands = []Command{CommandPlay, CommandPause, CommandStop, CommandToggle}

// ParseCommand maps a command name to a Command.
func ParseCommand(name string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "play":
		return CommandPlay, true
	case "pause":
		return CommandPause, true
	case "stop":
		return CommandStop, true
	case "toggle", "toggleplaypause":
		return CommandToggle, true
	default:
		return "", false
	}
}

// CommandStatus is the result reported back for a command.
type CommandStatus int

const (
	StatusSuccess CommandStatus = iota
	StatusCommandFailed
	StatusNoSuchContent
)

func (s CommandStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCommandFailed:
		return "commandFailed"
	case StatusNoSuchContent:
		return "noSuchContent"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s CommandStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CommandHandler handles one command and reports its status.
type CommandHandler func(Command) CommandStatus

// UnmarshalText decodes a status name.
func (s *CommandStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []CommandStatus{StatusSuccess, StatusCommandFailed, StatusNoSuchContent} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown command status %q", text)
}
