package export

import (
	"errors"
	"image"
	"image/gif"
	"io"
)

var ErrNoFrames = errors.New("export: no frames recorded")

// GIFRecorder accumulates paletted frames for an animated GIF.
type GIFRecorder struct {
	palette *Palette
	opts    ImageOptions
	delay   int
	frames  []*image.Paletted
}

// NewGIFRecorder records frames with the given per-frame delay in 1/100 s.
func NewGIFRecorder(p *Palette, opts ImageOptions, delay int) *GIFRecorder {
	return &GIFRecorder{palette: p, opts: opts, delay: delay}
}

func (r *GIFRecorder) Add(f Frame) {
	ceiling := Scale(f.Density, r.opts.Max)
	r.frames = append(r.frames, r.palette.Paletted(f.Density, f.N, r.opts.scale(), ceiling))
}

func (r *GIFRecorder) Len() int { return len(r.frames) }

func (r *GIFRecorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	return gif.EncodeAll(w, &anim)
}
