package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a stat mutation operator.
type Op int8

const (
	OpAdd      Op = iota // +X (also bare numeric)
	OpSub                // -X
	OpMul                // *X
	OpOverride           // =X, resets accumulated flats and multipliers
)

// Command is a single stat mutation instruction attached to an entry,
// e.g. "+10", "-3", "*1.2", "=100". Registration order is preserved
// because override semantics depend on it.
type Command struct {
	ID  string `json:"id"`
	Cmd string `json:"cmd"`
}

// CommandList is an ordered sequence of commands. Order matters once an
// override appears, so this is a slice, not a map.
type CommandList []Command

// Set registers a command under the given source id. An existing command
// with the same id is replaced in place, keeping its original position.
func (l CommandList) Set(id, cmd string) CommandList {
	for i := range l {
		if l[i].ID == id {
			l[i].Cmd = cmd
			return l
		}
	}
	return append(l, Command{ID: id, Cmd: cmd})
}

// Remove deletes all commands registered under the given source id.
// Returns the updated list and whether anything was removed.
func (l CommandList) Remove(id string) (CommandList, bool) {
	out := l[:0]
	removed := false
	for _, c := range l {
		if c.ID == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out, removed
}

// parseCommand splits a raw command string into operator and operand.
// A bare numeric is treated as "+X".
func parseCommand(raw string) (Op, float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OpAdd, 0, fmt.Errorf("empty command")
	}

	op := OpAdd
	switch s[0] {
	case '+':
		op, s = OpAdd, s[1:]
	case '-':
		op, s = OpSub, s[1:]
	case '*':
		op, s = OpMul, s[1:]
	case '=':
		op, s = OpOverride, s[1:]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return OpAdd, 0, fmt.Errorf("parsing command %q: %w", raw, err)
	}
	return op, v, nil
}
