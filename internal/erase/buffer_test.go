package erase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBufferSizes(t *testing.T) {
	assert.Nil(t, GetBuffer(0))
	assert.Nil(t, GetBuffer(-1))

	buf := GetBuffer(100)
	require.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024, "small buffers come from the 1KB pool")

	big := GetBuffer(20 << 20)
	require.Len(t, big, 20<<20)
}

// Возврат в пул обнуляет всю ёмкость буфера, не только текущую длину:
// в буферах бывают открытый текст и ключевой материал
func TestPutBufferZeroesFullCapacity(t *testing.T) {
	buf := GetBuffer(4096)
	full := buf[:cap(buf)]
	for i := range full {
		full[i] = 0xDE
	}

	PutBuffer(buf)

	for i, b := range full {
		if b != 0 {
			t.Fatalf("byte %d not zeroed after PutBuffer: %x", i, b)
		}
	}
}

func TestZero(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	Zero(buf)
	assert.Equal(t, make([]byte, 5), buf)
}

func TestPassPlanValidate(t *testing.T) {
	assert.Error(t, PassPlan{Passes: 0, ChunkSize: 4096}.Validate())
	assert.Error(t, PassPlan{Passes: 1, ChunkSize: 16}.Validate())
	assert.NoError(t, PassPlan{Passes: 1, ChunkSize: minChunkSize}.Validate())
	assert.NoError(t, PassPlan{Passes: 35, ChunkSize: 4 << 20}.Validate())
}
