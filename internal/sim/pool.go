package sim

import (
	"sync"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// FieldPool recycles density copies for hosts that publish a frame per step.
type FieldPool struct {
	pool sync.Pool
	size int
}

func NewFieldPool(cells int) *FieldPool {
	return &FieldPool{
		size: cells,
		pool: sync.Pool{
			New: func() interface{} {
				return make(fluid.Field, cells)
			},
		},
	}
}

func (p *FieldPool) Get() fluid.Field {
	return p.pool.Get().(fluid.Field)
}

func (p *FieldPool) Put(f fluid.Field) {
	if len(f) == p.size {
		clear(f)
		p.pool.Put(f)
	}
}

func (p *FieldPool) GetAndCopy(src fluid.Field) fluid.Field {
	dst := p.Get()
	copy(dst, src)
	return dst
}
