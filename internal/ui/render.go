package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"popit/internal/game"
	"popit/internal/selfplay"
	"popit/internal/ui/geometry"
)

// drawPanel draws one instance: the policy shading first, then the
// pieces, then the per-cell numbers.
func (s *Screen) drawPanel(dst *ebiten.Image, b *game.Board, instance int, ov selfplay.Overlay) {
	policy := row(ov.Policy, instance)
	q := row(ov.Q, instance)
	visits := row(ov.Visits, instance)

	for a := 0; a < game.Actions; a++ {
		x, y := geometry.CellOrigin(instance, a)
		if policy != nil && policy[a] > 0 {
			shade := color.NRGBA{220, 214, 247, uint8(min(policy[a], 1) * 255)}
			vector.DrawFilledRect(dst, float32(x), float32(y), geometry.CellSize, geometry.CellSize, shade, false)
		}

		r, c := game.CellCoord(a)
		cx, cy := geometry.CellCenter(instance, a)
		for player := game.ChannelA; player <= game.ChannelB; player++ {
			for _, o := range geometry.Spots(b[player][r][c]) {
				vector.DrawFilledCircle(dst, float32(cx+o.X), float32(cy+o.Y), geometry.SpotRadius, pieceColors[player], true)
			}
		}

		if policy != nil {
			s.drawText(dst, fmt.Sprintf("π: %.4f", policy[a]), cx, cy-50, 1, textColor)
		}
		if q != nil {
			s.drawText(dst, fmt.Sprintf("Q: %.4f", q[a]), cx, cy-35, 1, textColor)
		}
		if visits != nil {
			s.drawText(dst, fmt.Sprintf("SEL: %.0f", visits[a]), cx, cy+44, 1, textColor)
		}
	}
	if instance < len(ov.Value) && policy != nil {
		px, py := geometry.PanelOrigin(instance)
		s.drawText(dst, fmt.Sprintf("V: %.4f", ov.Value[instance]), px+geometry.PanelSize/2, py+4, 2, textColor)
	}
}

func row(rows [][]float32, i int) []float32 {
	if i < len(rows) && len(rows[i]) == game.Actions {
		return rows[i]
	}
	return nil
}

// drawGrid draws cell borders and thicker panel borders.
func drawGrid(dst *ebiten.Image) {
	const size = float32(geometry.ScreenSize)
	for i := 0; i <= geometry.ScreenSize/geometry.CellSize; i++ {
		p := float32(i * geometry.CellSize)
		width := float32(1)
		if i%game.Cols == 0 {
			width = 4
		}
		vector.StrokeLine(dst, p, 0, p, size, width, gridColor, false)
		vector.StrokeLine(dst, 0, p, size, p, width, gridColor, false)
	}
}

// drawText centres msg horizontally on x with its top at y.
func (s *Screen) drawText(dst *ebiten.Image, msg string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.PrimaryAlign = text.AlignCenter
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, msg, s.face, op)
}
