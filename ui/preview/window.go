// Package preview shows the annotated frame of each turn in a window.
package preview

import (
	"fmt"
	"image"
	"sync"

	"jumpbot/internal/version"
	"jumpbot/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Height of the frame area in the window, in device-independent units.
const viewHeight = 800

// Window is the preview window. It implements app.Viewer and is safe to
// call from the play loop goroutine.
type Window struct {
	fyne.Window

	mu     sync.Mutex
	image  *canvas.Image
	status *widget.Label
	frames int
}

// New creates the preview window sized for a res screen.
func New(fyneApp fyne.App, res geometry.Resolution) *Window {
	fyneApp.Settings().SetTheme(&Theme{})
	win := fyneApp.NewWindow(fmt.Sprintf("jumpbot %s", version.Version))

	w := &Window{Window: win}
	w.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, res.Width, res.Height)))
	w.image.FillMode = canvas.ImageFillContain
	w.image.ScaleMode = canvas.ImageScaleFastest
	w.status = widget.NewLabel("Waiting for first frame")

	win.SetContent(container.NewBorder(nil, w.status, nil, nil, w.image))
	win.Resize(ViewSize(res))
	return w
}

// ViewSize returns the window size for a res screen.
func ViewSize(res geometry.Resolution) fyne.Size {
	if res.Width <= 0 || res.Height <= 0 {
		return fyne.NewSize(viewHeight*9/16, viewHeight)
	}
	return fyne.NewSize(float32(res.Width)*viewHeight/float32(res.Height), viewHeight)
}

// Show replaces the displayed frame.
func (w *Window) Show(img image.Image) {
	w.mu.Lock()
	w.frames++
	n := w.frames
	w.image.Image = img
	w.mu.Unlock()

	w.image.Refresh()
	w.status.SetText(fmt.Sprintf("Frame %d", n))
}

// SetStatus replaces the status line.
func (w *Window) SetStatus(text string) {
	w.status.SetText(text)
}
