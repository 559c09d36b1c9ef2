package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"popit/internal/ui/geometry"
)

// handleInput forwards a left click on the first panel to WaitAction.
// Clicks arriving while an earlier one is still pending are dropped.
func (s *Screen) handleInput() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	instance, action, ok := geometry.PixelToAction(float64(mx), float64(my))
	if !ok || instance != 0 {
		return
	}
	select {
	case s.clicks <- action:
	default:
	}
}
