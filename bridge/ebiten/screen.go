// Package ebiten draws core frames with Ebiten.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/partyboy/core"
)

// Screen holds the last frame as an Ebiten image and draws it scaled to
// the window.
type Screen struct {
	offscreen *ebiten.Image           // Offscreen buffer for native resolution rendering
	rgba      []byte                  // RGBA conversion of the last frame
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewScreen creates an empty screen.
func NewScreen() *Screen {
	return &Screen{
		rgba: make([]byte, core.ScreenWidth*core.ScreenHeight*4),
	}
}

// Update replaces the displayed frame with an RGB core frame. Frames of the
// wrong size are ignored and false is returned.
func (s *Screen) Update(frame []byte) bool {
	if len(frame) != core.FrameBufferSize {
		return false
	}
	rgbToRGBA(s.rgba, frame)
	if s.offscreen == nil {
		s.offscreen = ebiten.NewImage(core.ScreenWidth, core.ScreenHeight)
	}
	s.offscreen.WritePixels(s.rgba)
	return true
}

// Draw renders the last frame centred in screen, scaled to fit while
// preserving aspect ratio.
func (s *Screen) Draw(screen *ebiten.Image) {
	if s.offscreen == nil {
		return
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := fit(w, h)

	s.drawOpts = ebiten.DrawImageOptions{}
	s.drawOpts.GeoM.Scale(scale, scale)
	s.drawOpts.GeoM.Translate(offsetX, offsetY)
	s.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(s.offscreen, &s.drawOpts)
}

// Layout implements ebiten.Game.
func (s *Screen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// fit returns the scale and offset that centre the native frame in a
// screenW x screenH area.
func fit(screenW, screenH int) (scale, offsetX, offsetY float64) {
	nativeW := float64(core.ScreenWidth)
	nativeH := float64(core.ScreenHeight)

	scale = min(float64(screenW)/nativeW, float64(screenH)/nativeH)
	offsetX = (float64(screenW) - nativeW*scale) / 2
	offsetY = (float64(screenH) - nativeH*scale) / 2
	return scale, offsetX, offsetY
}

func rgbToRGBA(dst, src []byte) {
	for i, j := 0, 0; i+2 < len(src) && j+3 < len(dst); i, j = i+3, j+4 {
		dst[j] = src[i]
		dst[j+1] = src[i+1]
		dst[j+2] = src[i+2]
		dst[j+3] = 0xFF
	}
}
