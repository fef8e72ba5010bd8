package erase

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/cockroachdb/errors"
)

// Pattern определяет стратегию заполнения для одного прохода перезаписи
type Pattern int

const (
	PatternZero Pattern = iota
	PatternOne
	PatternRandom
	PatternEncrypted
)

func (p Pattern) String() string {
	switch p {
	case PatternZero:
		return "zero"
	case PatternOne:
		return "one"
	case PatternRandom:
		return "random"
	case PatternEncrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// DefaultSequence is the fixed pattern order executed within every pass.
// Layering structurally different signatures (constants, CSPRNG output,
// ciphertext) is the whole point; the order is policy, not configuration.
var DefaultSequence = [4]Pattern{PatternZero, PatternOne, PatternRandom, PatternEncrypted}

const (
	cipherKeySize   = 32
	cipherNonceSize = 12
)

// cipherMaterial is an ephemeral key+nonce pair. It lives for exactly one
// chunk; reuse across chunks is forbidden.
type cipherMaterial struct {
	key   []byte
	nonce []byte
}

func newCipherMaterial(r io.Reader) (*cipherMaterial, error) {
	m := &cipherMaterial{
		key:   make([]byte, cipherKeySize),
		nonce: make([]byte, cipherNonceSize),
	}
	if _, err := io.ReadFull(r, m.key); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "key generation"), ErrCipher)
	}
	if _, err := io.ReadFull(r, m.nonce); err != nil {
		Zero(m.key)
		return nil, errors.Mark(errors.Wrap(err, "nonce generation"), ErrCipher)
	}
	return m, nil
}

// destroy clears the key material.
func (m *cipherMaterial) destroy() {
	Zero(m.key)
	Zero(m.nonce)
}

// fillChunk заполняет буфер данными выбранного паттерна
func (w *PatternWriter) fillChunk(buf []byte, p Pattern) error {
	switch p {
	case PatternZero:
		fillConstant(buf, 0x00)
	case PatternOne:
		fillConstant(buf, 0xFF)
	case PatternRandom:
		if _, err := io.ReadFull(w.rand, buf); err != nil {
			return errors.Wrap(err, "random fill")
		}
	case PatternEncrypted:
		return w.fillEncrypted(buf)
	default:
		return errors.Newf("unknown pattern: %d", int(p))
	}
	return nil
}

// fillEncrypted fills buf with exactly len(buf) bytes of AES-256-GCM
// ciphertext over a fresh random plaintext. Key, nonce and plaintext are
// single-use and cleared before return on every path.
func (w *PatternWriter) fillEncrypted(buf []byte) error {
	overhead := cipherNonceSize + 16 // nonce prefix + GCM tag
	if len(buf) <= overhead {
		return errors.Mark(errors.Newf("chunk of %d bytes too small for encrypted pattern", len(buf)), ErrCipher)
	}

	material, err := newCipherMaterial(w.rand)
	if err != nil {
		return err
	}
	defer material.destroy()

	block, err := aes.NewCipher(material.key)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "cipher init"), ErrCipher)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, cipherNonceSize)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gcm init"), ErrCipher)
	}

	plain := GetBuffer(len(buf) - overhead)
	defer PutBuffer(plain)
	if _, err := io.ReadFull(w.rand, plain); err != nil {
		return errors.Mark(errors.Wrap(err, "plaintext generation"), ErrCipher)
	}

	copy(buf, material.nonce)
	gcm.Seal(buf[cipherNonceSize:cipherNonceSize], material.nonce, plain, nil)
	return nil
}

func fillConstant(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}
