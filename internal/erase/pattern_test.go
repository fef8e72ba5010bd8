package erase

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillChunkZero(t *testing.T) {
	pw, err := NewPatternWriter(rand.Reader, 4096)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = 0xAB
	}

	require.NoError(t, pw.fillChunk(buf, PatternZero))
	assert.Equal(t, make([]byte, 4096), buf)
}

func TestFillChunkOne(t *testing.T) {
	pw, err := NewPatternWriter(rand.Reader, 4096)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	require.NoError(t, pw.fillChunk(buf, PatternOne))
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte %d is %x, want 0xFF", i, b)
		}
	}
}

func TestFillChunkRandomDiffers(t *testing.T) {
	pw, err := NewPatternWriter(rand.Reader, 4096)
	require.NoError(t, err)

	a := make([]byte, 4096)
	b := make([]byte, 4096)
	require.NoError(t, pw.fillChunk(a, PatternRandom))
	require.NoError(t, pw.fillChunk(b, PatternRandom))
	assert.False(t, bytes.Equal(a, b), "two random chunks should not match")
}

func TestFillEncryptedProducesFullChunk(t *testing.T) {
	pw, err := NewPatternWriter(rand.Reader, 4096)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	require.NoError(t, pw.fillChunk(buf, PatternEncrypted))

	// Зашифрованный чанк не должен быть тривиальным (нулевым)
	assert.False(t, bytes.Equal(buf, make([]byte, 4096)))

	again := make([]byte, 4096)
	require.NoError(t, pw.fillChunk(again, PatternEncrypted))
	assert.False(t, bytes.Equal(buf, again), "two encrypted chunks should not match")
}

func TestFillEncryptedRejectsTinyChunk(t *testing.T) {
	pw := &PatternWriter{rand: rand.Reader, chunkSize: 16}
	buf := make([]byte, 16)
	err := pw.fillChunk(buf, PatternEncrypted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCipher)
}

// Свежая пара key+nonce на каждый чанк: повторное использование сделало бы
// "шифрование" бессмысленным как маскировку
func TestCipherMaterialNeverRepeats(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		m, err := newCipherMaterial(rand.Reader)
		require.NoError(t, err)
		pair := hex.EncodeToString(m.key) + ":" + hex.EncodeToString(m.nonce)
		if _, dup := seen[pair]; dup {
			t.Fatalf("key+nonce pair repeated at iteration %d", i)
		}
		seen[pair] = struct{}{}
		m.destroy()
	}
	assert.Len(t, seen, 1000)
}

func TestCipherMaterialDestroyZeroes(t *testing.T) {
	m, err := newCipherMaterial(rand.Reader)
	require.NoError(t, err)

	key := m.key
	nonce := m.nonce
	m.destroy()

	assert.Equal(t, make([]byte, cipherKeySize), key)
	assert.Equal(t, make([]byte, cipherNonceSize), nonce)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestCipherMaterialGenerationFailure(t *testing.T) {
	_, err := newCipherMaterial(failingReader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCipher)
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "zero", PatternZero.String())
	assert.Equal(t, "one", PatternOne.String())
	assert.Equal(t, "random", PatternRandom.String())
	assert.Equal(t, "encrypted", PatternEncrypted.String())
	assert.Equal(t, "unknown", Pattern(42).String())
}

func TestDefaultSequenceOrder(t *testing.T) {
	want := [4]Pattern{PatternZero, PatternOne, PatternRandom, PatternEncrypted}
	assert.Equal(t, want, DefaultSequence)
}
