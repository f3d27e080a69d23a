package materialize

import "sync"

const DefaultBufferSize = 4096

type bufferPool struct {
	pool sync.Pool
}

func newBufferPool(size int) *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

func (bp *bufferPool) get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

func (bp *bufferPool) put(b *[]byte) {
	bp.pool.Put(b)
}
