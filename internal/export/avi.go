package export

import (
	"bytes"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// AVIRecorder streams frames into an MJPEG AVI file.
type AVIRecorder struct {
	palette *Palette
	opts    ImageOptions
	writer  mjpeg.AviWriter
	buf     bytes.Buffer
	frames  int
	closed  bool
}

// NewAVIRecorder creates path sized for an n×n field at opts' scale.
func NewAVIRecorder(path string, p *Palette, opts ImageOptions, n, fps int) (*AVIRecorder, error) {
	side := int32((n - 2) * opts.scale())
	w, err := mjpeg.New(path, side, side, int32(fps))
	if err != nil {
		return nil, err
	}
	return &AVIRecorder{palette: p, opts: opts, writer: w}, nil
}

func (r *AVIRecorder) Add(f Frame) error {
	dc := r.palette.Draw(f, r.opts)
	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, dc.Image(), &jpeg.Options{Quality: 90}); err != nil {
		return err
	}
	r.frames++
	return r.writer.AddFrame(r.buf.Bytes())
}

func (r *AVIRecorder) Len() int { return r.frames }

// Close finalizes the file. Later calls are no-ops.
func (r *AVIRecorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.writer.Close()
}
