package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"popit/internal/game"
)

func TestSpotsCount(t *testing.T) {
	for count := 0; count <= 3; count++ {
		require.Len(t, Spots(count), count)
	}
	require.Len(t, Spots(7), 4)
	require.Empty(t, Spots(-1))
}

func TestSpotsStayInsideCell(t *testing.T) {
	for count := 1; count <= 4; count++ {
		for _, o := range Spots(count) {
			require.LessOrEqual(t, o.X+SpotRadius, float64(CellSize/2))
			require.GreaterOrEqual(t, o.X-SpotRadius, float64(-CellSize/2))
			require.LessOrEqual(t, o.Y+SpotRadius, float64(CellSize/2))
			require.GreaterOrEqual(t, o.Y-SpotRadius, float64(-CellSize/2))
		}
	}
}

func TestPixelToActionRoundTrip(t *testing.T) {
	for instance := 0; instance < MaxPanels; instance++ {
		for a := 0; a < game.Actions; a++ {
			x, y := CellCenter(instance, a)
			gotInstance, gotAction, ok := PixelToAction(x, y)
			require.True(t, ok)
			require.Equal(t, instance, gotInstance)
			require.Equal(t, a, gotAction)
		}
	}
}

func TestPixelToActionEdges(t *testing.T) {
	inst, a, ok := PixelToAction(0, 0)
	require.True(t, ok)
	require.Equal(t, 0, inst)
	require.Equal(t, 0, a)

	inst, a, ok = PixelToAction(PanelSize, PanelSize-1)
	require.True(t, ok)
	require.Equal(t, 1, inst)
	require.Equal(t, game.CellIndex(5, 0), a)

	_, _, ok = PixelToAction(-1, 10)
	require.False(t, ok)
	_, _, ok = PixelToAction(10, ScreenSize)
	require.False(t, ok)
}
