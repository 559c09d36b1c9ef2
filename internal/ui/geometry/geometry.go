// Package geometry lays boards out on screen: up to four instances in a
// 2×2 grid of panels, each panel a 6×6 grid of square cells.
package geometry

import "popit/internal/game"

const (
	CellSize   = 120
	PanelSize  = game.Cols * CellSize
	PanelsWide = 2
	MaxPanels  = PanelsWide * PanelsWide
	ScreenSize = PanelsWide * PanelSize
	SpotRadius = 14

	spotGap = 22
)

// Offset is a displacement in pixels from a cell centre.
type Offset struct{ X, Y float64 }

// Spots returns where count pieces are drawn inside a cell. Counts above
// four are drawn as four.
func Spots(count int) []Offset {
	switch {
	case count <= 0:
		return nil
	case count == 1:
		return []Offset{{0, 0}}
	case count == 2:
		return []Offset{{-spotGap, 0}, {spotGap, 0}}
	case count == 3:
		return []Offset{{0, -spotGap}, {-spotGap, spotGap * 0.75}, {spotGap, spotGap * 0.75}}
	default:
		return []Offset{{-spotGap, -spotGap}, {spotGap, -spotGap}, {-spotGap, spotGap}, {spotGap, spotGap}}
	}
}

// PanelOrigin returns the top-left corner of an instance's panel.
func PanelOrigin(instance int) (x, y float64) {
	return float64(instance%PanelsWide) * PanelSize, float64(instance/PanelsWide) * PanelSize
}

// CellOrigin returns the top-left corner of a cell.
func CellOrigin(instance, action int) (x, y float64) {
	px, py := PanelOrigin(instance)
	r, c := game.CellCoord(action)
	return px + float64(c*CellSize), py + float64(r*CellSize)
}

// CellCenter returns the centre of a cell.
func CellCenter(instance, action int) (x, y float64) {
	x, y = CellOrigin(instance, action)
	return x + CellSize/2, y + CellSize/2
}

// PixelToAction maps a screen position to the panel and cell under it.
func PixelToAction(x, y float64) (instance, action int, ok bool) {
	if x < 0 || y < 0 || x >= ScreenSize || y >= ScreenSize {
		return 0, 0, false
	}
	px, py := int(x)/PanelSize, int(y)/PanelSize
	c := (int(x) % PanelSize) / CellSize
	r := (int(y) % PanelSize) / CellSize
	return py*PanelsWide + px, game.CellIndex(r, c), true
}
