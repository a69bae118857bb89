package encoder

import "sync"

// workBuf wraps a reusable segment working buffer. Pooling the wrapper
// (rather than the slice header directly) avoids sync.Pool boxing an
// interface around a value every round trip, mirroring the teacher's
// pointer-based encodeScratch in core/encoder.go.
type workBuf struct {
	buf []uint32
}

// scratchPool hands out reusable segment working buffers so concurrent
// callers of Encode don't contend on a single shared slice.
type scratchPool struct {
	pool sync.Pool
}

func (p *scratchPool) get() *workBuf {
	if v := p.pool.Get(); v != nil {
		wb := v.(*workBuf)
		wb.buf = wb.buf[:0]
		return wb
	}
	return &workBuf{buf: make([]uint32, 0, 32)}
}

func (p *scratchPool) put(wb *workBuf) {
	p.pool.Put(wb)
}
