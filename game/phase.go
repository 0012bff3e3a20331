// File: game/phase.go
package game

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// GamePhase is the screen a session is on. Exactly one is active at a time.
type GamePhase int

const (
	PhaseIdle GamePhase = iota
	PhaseModeSelect
	PhaseNameEntry
	PhaseCountdown
	PhasePlaying
	PhaseGameOver
)

var phaseNames = map[GamePhase]string{
	PhaseIdle:       "idle",
	PhaseModeSelect: "modeSelect",
	PhaseNameEntry:  "nameEntry",
	PhaseCountdown:  "countdown",
	PhasePlaying:    "playing",
	PhaseGameOver:   "gameOver",
}

func (p GamePhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText makes JSON snapshots carry the phase name.
func (p GamePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *GamePhase) UnmarshalText(text []byte) error {
	return p.parse(string(text))
}

// EncodeMsgpack writes the phase name as a msgpack str; the TextMarshaler
// path would emit bin.
func (p GamePhase) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(p.String())
}

func (p *GamePhase) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return p.parse(name)
}

func (p *GamePhase) parse(name string) error {
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// Mode selects who controls the right paddle.
type Mode string

const (
	ModeNone     Mode = ""
	ModeTwoHuman Mode = "1v1"
	ModeVersusAI Mode = "1vAI"
)

// ParseMode accepts the wire names of the two playable modes.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTwoHuman, ModeVersusAI:
		return Mode(s), nil
	}
	return ModeNone, fmt.Errorf("unknown mode %q: %w", s, ErrInvalidCommand)
}

// Slots returns how many name fields the mode uses.
func (m Mode) Slots() int {
	if m == ModeTwoHuman {
		return 2
	}
	return 1
}
