// Package cli provides a command-line runner for the emulator.
// It handles input polling and renders the frames the worker sends, without
// the full library UI.
package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/partyboy/bridge/ebiten"
	"github.com/user-none/partyboy/core"
	"github.com/user-none/partyboy/ui"
)

// shutdownTimeout bounds how long Close waits for the worker.
const shutdownTimeout = 2 * time.Second

// volumeStep is the change per press of the volume keys.
const volumeStep = 0.1

// Reloader returns the current ROM and its battery RAM, for reset.
type Reloader func() (rom, ram []byte, err error)

// keyboard maps held keys to joypad buttons.
var keyboard = map[ebiten.Key]core.Key{
	ebiten.KeyW:          core.KeyUp,
	ebiten.KeyA:          core.KeyLeft,
	ebiten.KeyS:          core.KeyDown,
	ebiten.KeyD:          core.KeyRight,
	ebiten.KeyArrowUp:    core.KeyUp,
	ebiten.KeyArrowLeft:  core.KeyLeft,
	ebiten.KeyArrowDown:  core.KeyDown,
	ebiten.KeyArrowRight: core.KeyRight,
	ebiten.KeyO:          core.KeyA,
	ebiten.KeyK:          core.KeyB,
	ebiten.KeyM:          core.KeyStart,
	ebiten.KeyN:          core.KeySelect,
}

// gamepad maps standard layout buttons to joypad buttons.
var gamepad = map[ebiten.StandardGamepadButton]core.Key{
	ebiten.StandardGamepadButtonLeftTop:     core.KeyUp,
	ebiten.StandardGamepadButtonLeftBottom:  core.KeyDown,
	ebiten.StandardGamepadButtonLeftLeft:    core.KeyLeft,
	ebiten.StandardGamepadButtonLeftRight:   core.KeyRight,
	ebiten.StandardGamepadButtonRightBottom: core.KeyA,
	ebiten.StandardGamepadButtonRightRight:  core.KeyB,
	ebiten.StandardGamepadButtonCenterLeft:  core.KeySelect,
	ebiten.StandardGamepadButtonCenterRight: core.KeyStart,
}

// Runner is the ebiten.Game of the command-line mode. Emulation runs on the
// worker goroutine; the Ebiten thread only sends intents through the
// frontend and draws what comes back.
type Runner struct {
	frontend *ui.Frontend
	screen   *emubridge.Screen
	reload   Reloader

	title   string
	showFPS bool
	lastFPS float64

	held    [core.NumKeys]bool
	saveRAM []byte
	closed  bool
}

// NewRunner creates a Runner on frontend. reload is used by the reset key.
func NewRunner(frontend *ui.Frontend, reload Reloader, title string, showFPS bool) *Runner {
	return &Runner{
		frontend: frontend,
		screen:   emubridge.NewScreen(),
		reload:   reload,
		title:    title,
		showFPS:  showFPS,
	}
}

// Close stops the worker and returns the last battery RAM it reported.
func (r *Runner) Close() []byte {
	if !r.closed {
		r.saveRAM = r.frontend.Shutdown(shutdownTimeout)
		r.closed = true
	}
	return r.saveRAM
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	r.frontend.Pump()
	if r.frontend.Closed() {
		return ebiten.Termination
	}

	if frame, fresh := r.frontend.Frame(); fresh {
		r.screen.Update(frame)
	}
	if fps := r.frontend.FPS(); fps != r.lastFPS {
		r.lastFPS = fps
		ebiten.SetWindowTitle(fmt.Sprintf("%s - %.1f FPS", r.title, fps))
	}

	if !ebiten.IsFocused() {
		r.applyKeys([core.NumKeys]bool{})
		return nil
	}

	r.pollActions()
	r.applyKeys(pollKeys())
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.screen.Draw(screen)
	if !r.showFPS {
		return
	}
	status := fmt.Sprintf("%.1f FPS  VOL %.0f%%", r.lastFPS, 100*r.frontend.Volume())
	switch {
	case r.frontend.Paused():
		status += " PAUSED"
	case r.frontend.Rewinding():
		status += " REWIND"
	case r.frontend.Turbo():
		status += " TURBO"
	}
	ebitenutil.DebugPrint(screen, status)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.screen.Layout(outsideWidth, outsideHeight)
}

// pollActions handles the non-joypad keys.
func (r *Runner) pollActions() {
	r.frontend.SetTurbo(ebiten.IsKeyPressed(ebiten.KeySpace))
	r.frontend.SetRewind(ebiten.IsKeyPressed(ebiten.KeyR))

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		r.frontend.TakeSnapshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF8) {
		r.frontend.LoadSnapshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		r.frontend.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		r.frontend.AdjustVolume(-volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		r.frontend.AdjustVolume(volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && r.reload != nil {
		rom, ram, err := r.reload()
		if err != nil {
			log.Printf("Warning: reset failed: %v", err)
			return
		}
		r.held = [core.NumKeys]bool{}
		r.frontend.Load(rom, ram)
	}
}

// applyKeys sends the presses and releases between the held state and cur.
func (r *Runner) applyKeys(cur [core.NumKeys]bool) {
	down, up := diffKeys(r.held, cur)
	for _, k := range down {
		r.frontend.KeyDown(k)
	}
	for _, k := range up {
		r.frontend.KeyUp(k)
	}
	r.held = cur
}

// pollKeys reads keyboard and gamepad input.
func pollKeys() [core.NumKeys]bool {
	var cur [core.NumKeys]bool
	for key, k := range keyboard {
		if ebiten.IsKeyPressed(key) {
			cur[k] = true
		}
	}

	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for btn, k := range gamepad {
			if ebiten.IsStandardGamepadButtonPressed(id, btn) {
				cur[k] = true
			}
		}

		// Left analog stick (with deadzone)
		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if axisX < -deadzone {
			cur[core.KeyLeft] = true
		}
		if axisX > deadzone {
			cur[core.KeyRight] = true
		}
		if axisY < -deadzone {
			cur[core.KeyUp] = true
		}
		if axisY > deadzone {
			cur[core.KeyDown] = true
		}
	}
	return cur
}

// diffKeys returns the keys pressed and released going from prev to cur.
func diffKeys(prev, cur [core.NumKeys]bool) (down, up []core.Key) {
	for i := range cur {
		switch {
		case cur[i] && !prev[i]:
			down = append(down, core.Key(i))
		case !cur[i] && prev[i]:
			up = append(up, core.Key(i))
		}
	}
	return down, up
}
