package sim

import (
	"sync"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// FieldPool recycles snapshot buffers of one grid shape.
type FieldPool struct {
	pool   sync.Pool
	nx, ny int
}

func NewFieldPool(nx, ny int) *FieldPool {
	return &FieldPool{
		nx: nx,
		ny: ny,
		pool: sync.Pool{
			New: func() interface{} {
				f := dynamo.NewField(nx, ny)
				return &f
			},
		},
	}
}

func (p *FieldPool) Get() *dynamo.Field {
	return p.pool.Get().(*dynamo.Field)
}

func (p *FieldPool) Put(f *dynamo.Field) {
	if f.NX == p.nx && f.NY == p.ny && len(f.Data) == p.nx*p.ny {
		p.pool.Put(f)
	}
}

func (p *FieldPool) GetAndCopy(src dynamo.Field) *dynamo.Field {
	dst := p.Get()
	dst.CopyFrom(src)
	return dst
}
