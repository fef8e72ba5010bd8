package erase

import (
	"sync"
)

// BufferPool управляет пулом буферов для оптимизации памяти.
// Буферы могут содержать открытый текст или ключевой материал, поэтому
// каждый возврат в пул обнуляет буфер целиком.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var globalBufferPool = &BufferPool{
	pools: make(map[int]*sync.Pool),
}

// GetBuffer получает буфер из пула или создает новый
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}

	return globalBufferPool.getBuffer(size)
}

// PutBuffer clears the buffer and returns it to the pool. Callers must not
// touch the slice afterwards.
func PutBuffer(buf []byte) {
	if len(buf) == 0 {
		return
	}

	globalBufferPool.putBuffer(buf)
}

// Zero overwrites every byte of buf. Used for chunk buffers and ephemeral
// key material on all exit paths.
func Zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// getBuffer получает буфер нужного размера
func (bp *BufferPool) getBuffer(size int) []byte {
	poolSize := bp.getPoolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		// Double-check
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size]
}

// putBuffer возвращает буфер в соответствующий пул
func (bp *BufferPool) putBuffer(buf []byte) {
	capacity := cap(buf)
	poolSize := bp.getPoolSize(capacity)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	// Обнуляем всю ёмкость, не только текущую длину
	full := buf[:capacity]
	Zero(full)

	if exists {
		pool.Put(full)
	}
}

// getPoolSize определяет размер пула для буфера
func (bp *BufferPool) getPoolSize(size int) int {
	// Стандартные размеры пулов (степени двойки)
	sizes := []int{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	// Если размер больше максимального, округляем до 4KB
	return ((size + 4095) / 4096) * 4096
}
