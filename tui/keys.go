package tui

import (
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/utils"
)

// DefaultReleaseDelay outlasts the usual terminal key-repeat gap.
const DefaultReleaseDelay = 200 * time.Millisecond

// KeyHold fakes key-up events: terminals only report presses, so a key
// counts as held until no repeat has arrived for the release delay.
type KeyHold struct {
	delay time.Duration
	until map[string]time.Time
}

func NewKeyHold(delay time.Duration) *KeyHold {
	if delay <= 0 {
		delay = DefaultReleaseDelay
	}
	return &KeyHold{delay: delay, until: make(map[string]time.Time)}
}

// Press extends the hold on key and reports whether it was newly held.
func (h *KeyHold) Press(key string, now time.Time) bool {
	_, held := h.until[key]
	h.until[key] = now.Add(h.delay)
	return !held
}

// Release drops key and reports whether it was held.
func (h *KeyHold) Release(key string) bool {
	_, held := h.until[key]
	delete(h.until, key)
	return held
}

// Expired releases and returns every key whose hold ran out.
func (h *KeyHold) Expired(now time.Time) []string {
	var keys []string
	for k, t := range h.until {
		if !now.Before(t) {
			keys = append(keys, k)
			delete(h.until, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ReleaseAll forgets every held key and returns them.
func (h *KeyHold) ReleaseAll() []string {
	keys := make([]string, 0, len(h.until))
	for k := range h.until {
		keys = append(keys, k)
	}
	h.until = make(map[string]time.Time)
	sort.Strings(keys)
	return keys
}

// Keymap turns terminal key events into game commands for the phase the
// session is in.
type Keymap struct {
	hold *KeyHold
	slot int
}

func NewKeymap(releaseDelay time.Duration) *Keymap {
	return &Keymap{hold: NewKeyHold(releaseDelay)}
}

// ActiveSlot is the name field currently being edited.
func (k *Keymap) ActiveSlot() int { return k.slot }

// Handle maps one key event. The second result asks the front end to quit.
func (k *Keymap) Handle(ev *tcell.EventKey, snap game.Snapshot, now time.Time) ([]game.Command, bool) {
	if ev.Key() == tcell.KeyCtrlC {
		return k.ReleaseAll(), true
	}
	if snap.Phase != game.PhaseNameEntry {
		k.slot = utils.LeftIndex
	}

	switch snap.Phase {
	case game.PhaseIdle:
		switch {
		case ev.Key() == tcell.KeyEnter || isRune(ev, 'p', 'P'):
			return one(game.Command{Type: game.CommandPlay}), false
		case isRune(ev, 'q', 'Q'):
			return nil, true
		}
	case game.PhaseModeSelect:
		switch {
		case isRune(ev, '1'):
			return one(game.Command{Type: game.CommandMode, Mode: string(game.ModeTwoHuman)}), false
		case isRune(ev, '2'):
			return one(game.Command{Type: game.CommandMode, Mode: string(game.ModeVersusAI)}), false
		case ev.Key() == tcell.KeyEscape:
			return one(game.Command{Type: game.CommandBack}), false
		}
	case game.PhaseNameEntry:
		return k.handleNameEntry(ev, snap), false
	case game.PhasePlaying:
		if ev.Key() == tcell.KeyRune {
			return k.press(string(ev.Rune()), now), false
		}
		switch ev.Key() {
		case tcell.KeyUp:
			return k.press(game.RightKeys.Up[0], now), false
		case tcell.KeyDown:
			return k.press(game.RightKeys.Down[0], now), false
		}
	case game.PhaseGameOver:
		switch {
		case isRune(ev, 'r', 'R'):
			return one(game.Command{Type: game.CommandPlayAgain}), false
		case ev.Key() == tcell.KeyEscape:
			return one(game.Command{Type: game.CommandBack}), false
		case isRune(ev, 'q', 'Q'):
			return nil, true
		}
	}
	return nil, false
}

func (k *Keymap) handleNameEntry(ev *tcell.EventKey, snap game.Snapshot) []game.Command {
	if k.slot >= snap.Mode.Slots() {
		k.slot = utils.LeftIndex
	}
	current := []rune(snap.Names[k.slot])

	switch ev.Key() {
	case tcell.KeyEscape:
		return one(game.Command{Type: game.CommandBack})
	case tcell.KeyEnter:
		return one(game.Command{Type: game.CommandStart})
	case tcell.KeyTab, tcell.KeyBacktab:
		k.slot = (k.slot + 1) % snap.Mode.Slots()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(current) > 0 {
			return one(game.Command{Type: game.CommandName, Slot: k.slot, Value: string(current[:len(current)-1])})
		}
	case tcell.KeyRune:
		return one(game.Command{Type: game.CommandName, Slot: k.slot, Value: string(append(current, ev.Rune()))})
	}
	return nil
}

// press holds a paddle key, emitting a key down on the first press and
// releasing the opposite direction of the same paddle.
func (k *Keymap) press(key string, now time.Time) []game.Command {
	opposite, bound := oppositeKeys(key)
	if !bound {
		return nil
	}
	var cmds []game.Command
	for _, o := range opposite {
		if k.hold.Release(o) {
			cmds = append(cmds, game.Command{Type: game.CommandKeyUp, Key: o})
		}
	}
	if k.hold.Press(key, now) {
		cmds = append(cmds, game.Command{Type: game.CommandKeyDown, Key: key})
	}
	return cmds
}

// Expired returns key up commands for holds that ran out.
func (k *Keymap) Expired(now time.Time) []game.Command {
	return keyUps(k.hold.Expired(now))
}

// ReleaseAll returns key up commands for every held key.
func (k *Keymap) ReleaseAll() []game.Command {
	return keyUps(k.hold.ReleaseAll())
}

func keyUps(keys []string) []game.Command {
	var cmds []game.Command
	for _, key := range keys {
		cmds = append(cmds, game.Command{Type: game.CommandKeyUp, Key: key})
	}
	return cmds
}

func oppositeKeys(key string) ([]string, bool) {
	for _, b := range game.Bindings {
		if contains(b.Up, key) {
			return b.Down, true
		}
		if contains(b.Down, key) {
			return b.Up, true
		}
	}
	return nil, false
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func isRune(ev *tcell.EventKey, runes ...rune) bool {
	if ev.Key() != tcell.KeyRune {
		return false
	}
	for _, r := range runes {
		if ev.Rune() == r {
			return true
		}
	}
	return false
}

func one(cmd game.Command) []game.Command { return []game.Command{cmd} }
