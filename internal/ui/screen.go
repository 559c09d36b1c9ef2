// Package ui shows Pop it! batches in an ebiten window and, in
// interactive mode, turns mouse clicks into actions.
package ui

import (
	"context"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"popit/internal/game"
	"popit/internal/selfplay"
	"popit/internal/ui/geometry"
)

const (
	// window size; the logical screen is geometry.ScreenSize and is scaled
	// down to fit
	WindowWidth  = geometry.ScreenSize / 2
	WindowHeight = geometry.ScreenSize / 2
)

var (
	background  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	gridColor   = color.RGBA{0x30, 0x30, 0x30, 0xff}
	textColor   = color.Black
	statusColor = color.RGBA{0xb0, 0x10, 0x10, 0xff}
	// piece colours by channel
	pieceColors = [2]color.Color{
		color.RGBA{0xd6, 0x3a, 0x3a, 0xff},
		color.RGBA{0x2e, 0x6f, 0xd6, 0xff},
	}
)

type Option func(s *Screen)

// WithInteractive turns clicks on the first panel into actions for
// WaitAction.
func WithInteractive() Option {
	return func(s *Screen) {
		s.interactive = true
	}
}

// Screen implements ebiten.Game and selfplay.Renderer. Render may be
// called from any goroutine; Draw shows the latest frame.
type Screen struct {
	mu      sync.Mutex
	state   *game.State
	overlay selfplay.Overlay
	status  string
	closed  bool

	interactive bool
	clicks      chan int
	face        text.Face
}

var _ selfplay.Renderer = (*Screen)(nil)

func NewScreen(options ...Option) *Screen {
	s := &Screen{
		clicks: make(chan int, 1),
		face:   text.NewGoXFace(basicfont.Face7x13),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Render stores a frame for the next Draw.
func (s *Screen) Render(st *game.State, ov selfplay.Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.overlay = ov
}

// SetStatus shows msg across the bottom of the window.
func (s *Screen) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
}

// Close makes the next Update end the game loop.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Screen) Update() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ebiten.Termination
	}
	if s.interactive {
		s.handleInput()
	}
	return nil
}

func (s *Screen) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	st, ov, status := s.state, s.overlay, s.status
	s.mu.Unlock()

	screen.Fill(background)
	if st != nil {
		for i := 0; i < min(st.Len(), geometry.MaxPanels); i++ {
			s.drawPanel(screen, &st.Boards[i], i, ov)
		}
	}
	drawGrid(screen)
	if status != "" {
		s.drawText(screen, status, geometry.ScreenSize/2, geometry.ScreenSize-48, 3, statusColor)
	}
}

func (s *Screen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return geometry.ScreenSize, geometry.ScreenSize
}

// WaitAction blocks until the user clicks a cell of the first panel.
func (s *Screen) WaitAction(ctx context.Context) (int, error) {
	select {
	case a := <-s.clicks:
		return a, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
