package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedStringRoundTrip(t *testing.T) {
	t.Run("ShorterThanNIsZeroPadded", func(t *testing.T) {
		w := NewWriter(8)
		w.FixedString("MIDEV", 8)
		assert.Equal(t, []byte{'M', 'I', 'D', 'E', 'V', 0, 0, 0}, w.Bytes())

		r := NewReader(w.Bytes())
		s, err := r.FixedString(8)
		require.NoError(t, err)
		assert.Equal(t, "MIDEV", s)
	})

	t.Run("LongerThanNIsTruncated", func(t *testing.T) {
		w := NewWriter(4)
		w.FixedString("MIDEVICE", 4)
		assert.Equal(t, []byte{'M', 'I', 'D', 'E'}, w.Bytes())
	})

	t.Run("ShortReadErrors", func(t *testing.T) {
		r := NewReader([]byte{0x01, 0x02})
		_, err := r.FixedString(8)
		require.Error(t, err)
	})
}

func TestUUIDRoundTrip(t *testing.T) {
	var want [16]byte
	for i := range want {
		want[i] = byte(i)
	}

	w := NewWriter(16)
	w.UUID(want)

	r := NewReader(w.Bytes())
	got, err := r.UUID()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type testFlags = uint8

const (
	flagOne  testFlags = 1 << 0
	flagTwo  testFlags = 1 << 1
	flagBoth           = flagOne | flagTwo
)

func TestFlagSetRejectsUndefinedBits(t *testing.T) {
	t.Run("ValidBitsAccepted", func(t *testing.T) {
		fs, err := NewFlagSet[testFlags](flagOne, flagBoth)
		require.NoError(t, err)
		assert.True(t, fs.Has(flagOne))
		assert.False(t, fs.Has(flagTwo))
	})

	t.Run("UndefinedBitRejected", func(t *testing.T) {
		_, err := NewFlagSet[testFlags](1<<7, flagBoth)
		require.Error(t, err)
	})

	t.Run("ClearRemovesBitsIndependently", func(t *testing.T) {
		fs, err := NewFlagSet[testFlags](flagBoth, flagBoth)
		require.NoError(t, err)
		fs.Clear(flagOne)
		assert.False(t, fs.Has(flagOne))
		assert.True(t, fs.Has(flagTwo))
	})
}

func TestVectorCapacityEnforced(t *testing.T) {
	decodeU16 := func(r *Reader) (uint16, error) { return r.Uint16() }

	t.Run("ExactReadsCapacityElements", func(t *testing.T) {
		w := NewWriter(4)
		w.Uint16(1)
		w.Uint16(2)
		r := NewReader(w.Bytes())

		v, err := DecodeVectorExact[uint16](r, 2, decodeU16)
		require.NoError(t, err)
		assert.Equal(t, []uint16{1, 2}, v.Items())
	})

	t.Run("CountExceedingCapacityFails", func(t *testing.T) {
		r := NewReader(make([]byte, 16))
		_, err := DecodeVectorCount[uint16](r, 2, 3, decodeU16)
		require.Error(t, err)
	})

	t.Run("ByteSizeReadsUntilConsumed", func(t *testing.T) {
		w := NewWriter(6)
		w.Uint16(10)
		w.Uint16(20)
		w.Uint16(30)
		r := NewReader(w.Bytes())

		v, err := DecodeVectorByteSize[uint16](r, 4, 6, decodeU16)
		require.NoError(t, err)
		assert.Equal(t, []uint16{10, 20, 30}, v.Items())
	})

	t.Run("PushBeyondCapacityFails", func(t *testing.T) {
		v := NewVector[uint16](1)
		require.NoError(t, v.Push(1))
		require.Error(t, v.Push(2))
	})
}

func TestLittleEndianIntegers(t *testing.T) {
	w := NewWriter(15)
	w.Uint8(0xAB)
	w.Uint16(0x1234)
	w.Uint32(0x89ABCDEF)
	w.Uint64(0x0123456789ABCDEF)

	r := NewReader(w.Bytes())
	u8, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x89ABCDEF), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789ABCDEF), u64)
}
