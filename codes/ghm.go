package codes

import (
	"fmt"
	"strconv"
)

// validGhmRootTypes enumerates the legal GhmRootCode.Type values: the major
// diagnostic category letter, or a space for the handful of roots that have
// none.
const validGhmRootTypes = "CHKMZ "

// validGhmModes enumerates the legal GhmCode.Mode values.
const validGhmModes = "1234ABCDEJTZ\x00"

// GhmRootCode identifies a family of GHMs sharing severity parameters: a
// major diagnostic category (Cmd, 00-99), a type letter (Type, one of
// C/H/K/M/Z or space), and a sequence number within the category (Seq,
// 00-99).
type GhmRootCode struct {
	Cmd  uint8
	Type byte
	Seq  uint8
}

// Valid reports whether the root's fields are all in their legal ranges.
func (r GhmRootCode) Valid() bool {
	return r.Cmd <= 99 && r.Seq <= 99 && indexByte(validGhmRootTypes, r.Type) >= 0
}

// String renders the root as "DDTDD", e.g. "04C02".
func (r GhmRootCode) String() string {
	return fmt.Sprintf("%02d%c%02d", r.Cmd, r.Type, r.Seq)
}

// ParseGhmRoot parses a 5-character GHM root string such as "04C02".
func ParseGhmRoot(s string) (GhmRootCode, error) {
	var r GhmRootCode

	if len(s) != 5 {
		return r, ErrInvalidCode
	}

	cmd, err := strconv.Atoi(s[0:2])
	if err != nil {
		return r, ErrInvalidCode
	}

	seq, err := strconv.Atoi(s[3:5])
	if err != nil {
		return r, ErrInvalidCode
	}

	r = GhmRootCode{Cmd: uint8(cmd), Type: s[2], Seq: uint8(seq)} //nolint:gosec

	if !r.Valid() {
		return GhmRootCode{}, ErrInvalidCode
	}

	return r, nil
}

// GhmCode is a GhmRootCode plus the severity-encoding mode character.
type GhmCode struct {
	Root GhmRootCode
	Mode byte
}

// IsError reports whether this GHM is one of the canonical "could not
// classify" codes (command 90), per spec §7: pricing is skipped for these.
func (g GhmCode) IsError() bool { return g.Root.Cmd == 90 }

// Valid reports whether the code's root and mode are both legal.
func (g GhmCode) Valid() bool {
	return g.Root.Valid() && indexByte(validGhmModes, g.Mode) >= 0
}

// String renders the GHM as "DDTDDM", e.g. "04C02J". A zero mode renders as
// nothing (bare root).
func (g GhmCode) String() string {
	if g.Mode == 0 {
		return g.Root.String()
	}

	return g.Root.String() + string(g.Mode)
}

// ParseGhm parses a 5- or 6-character GHM string.
func ParseGhm(s string) (GhmCode, error) {
	if len(s) == 5 {
		root, err := ParseGhmRoot(s)

		return GhmCode{Root: root}, err
	}

	if len(s) != 6 {
		return GhmCode{}, ErrInvalidCode
	}

	root, err := ParseGhmRoot(s[:5])
	if err != nil {
		return GhmCode{}, err
	}

	g := GhmCode{Root: root, Mode: s[5]}
	if !g.Valid() {
		return GhmCode{}, ErrInvalidCode
	}

	return g, nil
}

// ghmTreeTypeChars and ghmTreeModeChars are the lookup tables the binary
// decision tree's terminal node encodes a GHM type/mode through (see
// tables.GhmDecisionNode).
var ghmTreeTypeChars = [10]byte{0, 'C', 'H', 'K', 'M', 'Z', ' ', ' ', ' ', ' '}
var ghmTreeModeChars = [10]byte{0, 'A', 'B', 'C', 'D', 'E', 'J', 'Z', ' ', ' '}

// GhmTypeChar and GhmModeChar expose the decision tree's terminal-node
// character tables; the table loader (package tables) reads terminal nodes
// through them.
func GhmTypeChar(i int) byte { return ghmTreeTypeChars[i%10] }
func GhmModeChar(i int) byte { return ghmTreeModeChars[i%10] }

// ErrorGhm is the canonical "could not classify" GHM, emitted when the tree
// interpreter exhausts its iteration budget or takes an invalid branch.
var ErrorGhm = GhmCode{Root: GhmRootCode{Cmd: 90, Type: 'Z', Seq: 3}, Mode: 'Z'}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}

	return -1
}
