package dichroma

import (
	"image"
	"image/color"

	"github.com/gogpu/dogvision/internal/parallel"
)

// TransformImage writes the dichromatic transform of src into dst.
// Only the intersection of both bounds is processed. Rows are processed in
// parallel; dst must not alias src unless they are the same *image.RGBA.
func TransformImage(dst *image.RGBA, src image.Image, p Params) {
	r := dst.Bounds().Intersect(src.Bounds())
	if r.Empty() {
		return
	}
	p = p.Sanitize()

	rgba, direct := src.(*image.RGBA)

	parallel.Shared().ForEachBand(r.Dy(), 0, func(y0, y1 int) {
		for y := r.Min.Y + y0; y < r.Min.Y+y1; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				var in RGBA
				if direct {
					in = fromPremultiplied(rgba.RGBAAt(x, y))
				} else {
					in = FromColor(src.At(x, y))
				}
				dst.SetRGBA(x, y, toPremultiplied(Transform(in, p)))
			}
		}
	})
}

func fromPremultiplied(c color.RGBA) RGBA {
	if c.A == 0 {
		return RGBA{}
	}
	a := float64(c.A)
	return RGBA{
		R: float64(c.R) / a,
		G: float64(c.G) / a,
		B: float64(c.B) / a,
		A: a / 255,
	}
}

func toPremultiplied(c RGBA) color.RGBA {
	n := c.NRGBA()
	return color.RGBAModel.Convert(n).(color.RGBA)
}
