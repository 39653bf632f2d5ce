package controllers

import (
	"fmt"
	"sort"
)

// Command is a discrete playback action.
type Command int

const (
	CommandNone Command = iota
	CommandToggle
	CommandNext
	CommandPrev
	CommandQuit
	CommandAlpha
	CommandColormap
)

var commandNames = map[string]Command{
	"toggle":   CommandToggle,
	"next":     CommandNext,
	"prev":     CommandPrev,
	"quit":     CommandQuit,
	"alpha":    CommandAlpha,
	"colormap": CommandColormap,
}

var commandHelp = []struct {
	command Command
	text    string
}{
	{CommandToggle, "Play/Pause"},
	{CommandNext, "Next Frame"},
	{CommandPrev, "Previous Frame"},
	{CommandQuit, "Quit"},
	{CommandAlpha, "Toggle Heatmap Overlay"},
	{CommandColormap, "Change Colormap"},
}

func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "none"
}

// KeyMap maps input key codes to commands.
type KeyMap map[int]Command

// NewKeyMap builds a KeyMap from command name to key code bindings. Unknown
// command names and codes bound twice are errors.
func NewKeyMap(bindings map[string][]int) (KeyMap, error) {
	km := KeyMap{}
	for name, codes := range bindings {
		cmd, ok := commandNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown command %q in key bindings", name)
		}
		for _, code := range codes {
			if prev, dup := km[code]; dup && prev != cmd {
				return nil, fmt.Errorf("key %d bound to both %s and %s", code, prev, cmd)
			}
			km[code] = cmd
		}
	}
	return km, nil
}

func (km KeyMap) Lookup(code int) Command {
	if cmd, ok := km[code]; ok {
		return cmd
	}
	return CommandNone
}

// Help lists one "KEYS: action" line per bound command.
func (km KeyMap) Help() []string {
	keys := map[Command][]int{}
	for code, cmd := range km {
		keys[cmd] = append(keys[cmd], code)
	}

	var lines []string
	for _, h := range commandHelp {
		codes := keys[h.command]
		if len(codes) == 0 {
			continue
		}
		sort.Ints(codes)
		label := ""
		for i, code := range codes {
			if i > 0 {
				label += "/"
			}
			label += keyName(code)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, h.text))
	}
	return lines
}

func keyName(code int) string {
	switch code {
	case 27:
		return "ESC"
	case 32:
		return "SPACE"
	case 81:
		return "LEFT"
	case 82:
		return "UP"
	case 83:
		return "RIGHT"
	case 84:
		return "DOWN"
	}
	if code > 32 && code < 127 {
		return string(rune(code))
	}
	return fmt.Sprintf("#%d", code)
}
