package main

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/render"
	"github.com/gogpu/dogvision/scene"
)

// Contact sheet layout.
const (
	sheetColumns = 3
	thumbWidth   = 320
	captionH     = 18
	gutter       = 6
)

var (
	sheetBackground = color.RGBA{R: 16, G: 18, B: 28, A: 255}
	captionColor    = color.RGBA{R: 230, G: 225, B: 170, A: 255}
)

// renderScene shades one frame of s with the settings of base at time now.
func renderScene(r *render.SoftwareRenderer, base control.State, s scene.Scene, now time.Time, w, h int) (*image.RGBA, error) {
	st := base
	st.Scene = s
	st.Transition = nil
	st.Phase = control.Generating
	if st.StartedAt.IsZero() {
		st.StartedAt = now
	}

	target := render.NewPixmapTarget(w, h)
	if err := r.Render(target, render.PlanFrame(st, now)); err != nil {
		return nil, err
	}
	return target.Image(), nil
}

// contactSheet renders every catalog scene into a captioned grid of
// thumbnails.
func contactSheet(r *render.SoftwareRenderer, base control.State, now time.Time, w, h int) (*image.RGBA, error) {
	thumbH := thumbWidth * h / w
	rows := (scene.Count + sheetColumns - 1) / sheetColumns
	cellW := thumbWidth + gutter
	cellH := thumbH + captionH + gutter

	sheet := image.NewRGBA(image.Rect(0, 0, sheetColumns*cellW+gutter, rows*cellH+gutter))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(sheetBackground), image.Point{}, draw.Src)

	for i, s := range scene.All() {
		frame, err := renderScene(r, base, s, now, w, h)
		if err != nil {
			return nil, err
		}
		x0 := gutter + (i%sheetColumns)*cellW
		y0 := gutter + (i/sheetColumns)*cellH
		dst := image.Rect(x0, y0, x0+thumbWidth, y0+thumbH)
		draw.ApproxBiLinear.Scale(sheet, dst, frame, frame.Bounds(), draw.Src, nil)
		caption(sheet, s.String(), x0, y0+thumbH+captionH-5)
	}
	return sheet, nil
}

func caption(dst draw.Image, text string, x, baseline int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
