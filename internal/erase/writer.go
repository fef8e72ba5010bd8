package erase

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
)

// PatternWriter заполняет чанки выбранным паттерном и пишет их в приёмник.
// Состояния между вызовами нет, кроме источника случайности; один экземпляр
// обслуживает все паттерны запуска.
type PatternWriter struct {
	rand      io.Reader
	chunkSize int
}

// Минимальный размер чанка: nonce + тег GCM + хотя бы блок открытого текста
const minChunkSize = cipherNonceSize + 16 + aesBlockSize

const aesBlockSize = 16

// NewPatternWriter creates a writer producing chunks of chunkSize bytes from
// the given random source.
func NewPatternWriter(rand io.Reader, chunkSize int) (*PatternWriter, error) {
	if rand == nil {
		return nil, errors.New("nil random source")
	}
	if chunkSize < minChunkSize {
		return nil, errors.Newf("chunk size must be at least %d bytes, got %d", minChunkSize, chunkSize)
	}
	return &PatternWriter{rand: rand, chunkSize: chunkSize}, nil
}

// WriteBounded overwrites exactly limit bytes of dst with the pattern. This
// is the target-file path: reaching limit is the only success condition, and
// any I/O error — disk-full included — is a failure, never reinterpreted as
// completion. Cancellation is honored between chunks; the in-flight chunk
// always completes.
func (w *PatternWriter) WriteBounded(ctx context.Context, dst io.Writer, p Pattern, limit int64, sink func(int64)) (int64, error) {
	buf := GetBuffer(w.chunkSize)
	defer PutBuffer(buf)

	var written int64
	for written < limit {
		select {
		case <-ctx.Done():
			return written, errors.Mark(ctx.Err(), ErrCancelled)
		default:
		}

		// Заполняем буфер целиком: для encrypted паттерна хвост меньше
		// служебных данных шифра, поэтому пишем префикс готового чанка
		if err := w.fillChunk(buf, p); err != nil {
			return written, err
		}

		toWrite := int64(len(buf))
		if remaining := limit - written; remaining < toWrite {
			toWrite = remaining
		}
		b := buf[:toWrite]

		off := 0
		for off < len(b) {
			n, err := dst.Write(b[off:])
			if n > 0 {
				off += n
				written += int64(n)
			}
			if err != nil {
				return written, errors.Wrap(err, "write")
			}
			if n == 0 {
				return written, errors.New("write returned 0 bytes without error")
			}
		}

		if sink != nil {
			sink(toWrite)
		}
	}

	return written, nil
}

// WriteUntilFull writes successive chunks until the destination reports
// exhaustion (disk-full class error, short write, or a zero-byte write).
// Exhaustion is normal termination for a free-space fill and returns a nil
// error; any other I/O failure propagates.
func (w *PatternWriter) WriteUntilFull(ctx context.Context, dst io.Writer, p Pattern, sink func(int64)) (int64, error) {
	buf := GetBuffer(w.chunkSize)
	defer PutBuffer(buf)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, errors.Mark(ctx.Err(), ErrCancelled)
		default:
		}

		if err := w.fillChunk(buf, p); err != nil {
			return written, err
		}

		n, err := dst.Write(buf)
		if n > 0 {
			written += int64(n)
		}
		if err != nil {
			if IsExhausted(err) {
				return written, nil
			}
			return written, errors.Wrap(err, "write")
		}
		if n < len(buf) {
			// Short write without error: the volume gave out
			return written, nil
		}

		if sink != nil {
			sink(int64(n))
		}
	}
}
