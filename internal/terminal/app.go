package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/message"

	"spinwheel/internal/i18n"
	"spinwheel/internal/render"
	"spinwheel/internal/wheel"
)

const statusRows = 2

// App runs one wheel in a terminal. All engine access happens on the Run
// goroutine.
type App struct {
	screen   tcell.Screen
	engine   *wheel.Engine
	surface  *Surface
	printer  *message.Printer
	interval time.Duration
	status   string
}

// NewApp wires an initialised screen to engine.
func NewApp(screen tcell.Screen, engine *wheel.Engine, printer *message.Printer, interval time.Duration) *App {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &App{
		screen:   screen,
		engine:   engine,
		surface:  NewSurface(screen, statusRows),
		printer:  printer,
		interval: interval,
	}
}

// Status returns the text on the status line.
func (a *App) Status() string { return a.status }

// Surface exposes the drawing surface.
func (a *App) Surface() *Surface { return a.surface }

// Spin starts a spin unless one is running.
func (a *App) Spin(now time.Time) bool {
	if _, ok := a.engine.Spin(now); !ok {
		return false
	}
	a.status = a.printer.Sprintf("table.spinning")
	return true
}

// Step advances the engine to now and redraws when something moved.
func (a *App) Step(now time.Time) {
	frame, ok := a.engine.Tick(now)
	if !ok {
		return
	}
	if frame.Done {
		a.status = i18n.ResultMessage(a.printer, frame.Outcome)
	}
	a.Draw()
}

// Draw renders the wheel and the status line.
func (a *App) Draw() {
	w := a.engine.Wheel()
	render.Draw(a.surface, w.Sectors(), a.engine.Rotation(), a.engine.Config().Pointer)

	cols, rows := a.screen.Size()
	help := "[space] " + a.printer.Sprintf("table.spin") + "   [q] quit"
	a.line(rows-2, cols, a.status, tcell.StyleDefault.Bold(true))
	a.line(rows-1, cols, help, tcell.StyleDefault.Foreground(tcell.ColorGray))
	a.screen.Show()
}

func (a *App) line(row, cols int, text string, style tcell.Style) {
	if row < 0 {
		return
	}
	runes := []rune(text)
	for col := 0; col < cols; col++ {
		r := ' '
		if col < len(runes) {
			r = runes[col]
		}
		a.screen.SetContent(col, row, r, nil, style)
	}
}

// handleKey applies a key press and reports whether the app should quit.
func (a *App) handleKey(key tcell.Key, r rune, now time.Time) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		a.Spin(now)
		return false
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return true
		case ' ':
			a.Spin(now)
		}
	}
	return false
}

// Run polls input and ticks the engine until the user quits or ctx ends.
// The caller owns the screen and calls Fini afterwards.
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if a.handleKey(ev.Key(), ev.Rune(), time.Now()) {
					return nil
				}
			case *tcell.EventResize:
				a.screen.Sync()
				a.surface.Resize()
				a.Draw()
			}
		case now := <-ticker.C:
			a.Step(now)
		}
	}
}
