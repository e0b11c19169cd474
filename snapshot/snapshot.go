// Package snapshot draws the state of a cloth as a still image: springs as
// lines and particles as dots, coloured by type. Images are rendered
// supersampled, downsampled with a CatmullRom filter and stored as WebP.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/akmonengine/weave"
	"github.com/akmonengine/weave/force"
	"github.com/akmonengine/weave/particle"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// View selects the plane the cloth is projected on
type View int

const (
	// ViewFront looks along -Z, Y up
	ViewFront View = iota
	// ViewTop looks down along -Y, Z toward the bottom of the image
	ViewTop
)

// ParseView accepts front and top
func ParseView(s string) (View, error) {
	switch s {
	case "front", "":
		return ViewFront, nil
	case "top":
		return ViewTop, nil
	}
	return ViewFront, fmt.Errorf("snapshot: unknown view %q", s)
}

type Options struct {
	Width, Height int
	// Supersample renders at this multiple of the size before filtering
	Supersample int
	View        View
}

var (
	background = color.RGBA{R: 250, G: 250, B: 245, A: 255}
	structural = color.RGBA{R: 90, G: 90, B: 100, A: 255}
	bending    = color.RGBA{R: 190, G: 190, B: 200, A: 255}

	particleColors = map[particle.Type]color.RGBA{
		particle.TypeStatic:    {R: 200, G: 30, B: 30, A: 255},
		particle.TypeKinematic: {R: 30, G: 90, B: 200, A: 255},
		particle.TypeDynamic:   {R: 30, G: 30, B: 30, A: 255},
	}
	contactColor = color.RGBA{R: 240, G: 140, B: 20, A: 255}
)

const margin = 0.05

// projection maps world points onto the supersampled canvas
type projection struct {
	view     View
	scale    float64
	min      [2]float64
	origin   [2]float64
	canvasH  float64
	flipAxis bool
}

func (v View) plane(p mgl64.Vec3) (float64, float64) {
	if v == ViewTop {
		return p.X(), p.Z()
	}
	return p.X(), p.Y()
}

func fit(c *weave.Cloth, view View, w, h int) projection {
	lo := [2]float64{math.Inf(1), math.Inf(1)}
	hi := [2]float64{math.Inf(-1), math.Inf(-1)}

	for _, p := range c.Particles() {
		u, v := view.plane(p.Position)
		lo[0], hi[0] = math.Min(lo[0], u), math.Max(hi[0], u)
		lo[1], hi[1] = math.Min(lo[1], v), math.Max(hi[1], v)
	}
	if lo[0] > hi[0] {
		lo, hi = [2]float64{-1, -1}, [2]float64{1, 1}
	}

	spanU := math.Max(hi[0]-lo[0], 1e-6)
	spanV := math.Max(hi[1]-lo[1], 1e-6)

	usableW := float64(w) * (1 - 2*margin)
	usableH := float64(h) * (1 - 2*margin)
	scale := math.Min(usableW/spanU, usableH/spanV)

	return projection{
		view:  view,
		scale: scale,
		min:   lo,
		origin: [2]float64{
			(float64(w) - spanU*scale) / 2,
			(float64(h) - spanV*scale) / 2,
		},
		canvasH:  float64(h),
		flipAxis: view == ViewFront,
	}
}

func (pr projection) apply(p mgl64.Vec3) (float32, float32) {
	u, v := pr.view.plane(p)
	x := pr.origin[0] + (u-pr.min[0])*pr.scale
	y := pr.origin[1] + (v-pr.min[1])*pr.scale
	if pr.flipAxis {
		y = pr.canvasH - y
	}
	return float32(x), float32(y)
}

// Render draws c into a new image of opts.Width x opts.Height
func Render(c *weave.Cloth, opts Options) *image.RGBA {
	ss := max(1, opts.Supersample)
	w, h := opts.Width*ss, opts.Height*ss

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	pr := fit(c, opts.View, w, h)

	// Bending springs first so the structural ones stay on top
	for _, kind := range []force.Kind{force.KindBending, force.KindStructural} {
		col := bending
		if kind == force.KindStructural {
			col = structural
		}
		drawSprings(canvas, c, pr, kind, float32(ss)*0.75, col)
	}

	radius := 2 * ss
	for _, p := range c.Particles() {
		col := particleColors[p.Type]
		if p.Contact.Active {
			col = contactColor
		}

		x, y := pr.apply(p.Position)
		cx, cy := int(x), int(y)
		dot := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1)
		draw.Draw(canvas, dot, image.NewUniform(col), image.Point{}, draw.Over)
	}

	if ss == 1 {
		return canvas
	}

	out := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out
}

// drawSprings fills every spring of one kind as a thin quad
func drawSprings(dst *image.RGBA, c *weave.Cloth, pr projection, kind force.Kind, halfWidth float32, col color.RGBA) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	empty := true
	for _, f := range c.Forces() {
		if f.Kind != kind {
			continue
		}
		pa, okA := c.Particle(f.A)
		pb, okB := c.Particle(f.B)
		if !okA || !okB {
			continue
		}

		x0, y0 := pr.apply(pa.Position)
		x1, y1 := pr.apply(pb.Position)

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length < 1e-3 {
			continue
		}
		// normal offset
		nx, ny := -dy/length*halfWidth, dx/length*halfWidth

		z.MoveTo(x0+nx, y0+ny)
		z.LineTo(x1+nx, y1+ny)
		z.LineTo(x1-nx, y1-ny)
		z.LineTo(x0-nx, y0-ny)
		z.ClosePath()
		empty = false
	}

	if empty {
		return
	}
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// Encode writes img as a lossless WebP
func Encode(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("snapshot: WebP encode: %w", err)
	}
	return nil
}

// WriteFile renders c and stores it at path, creating parent directories
func WriteFile(path string, c *weave.Cloth, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, Render(c, opts)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
