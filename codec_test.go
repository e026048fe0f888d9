package fix

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{25.0, "25"},
		{135155.0, "135155"},
		{100.12, "100.12"},
		{-0.5, "-0.5"},
		{0, "0"},
		{1e-7, "0.0000001"},
	}
	for _, tt := range tests {
		got, err := AppendFloat(nil, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := AppendFloat(nil, v)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestAppendPadded(t *testing.T) {
	assert.Equal(t, "007", string(appendPadded(nil, 7, 3)))
	assert.Equal(t, "000", string(appendPadded(nil, 0, 3)))
	assert.Equal(t, "255", string(appendPadded(nil, 255, 3)))
}

func TestDecodeInt(t *testing.T) {
	v, err := DecodeInt([]byte("00123"))
	require.NoError(t, err)
	assert.Equal(t, int64(123), v)

	v, err = DecodeInt([]byte("-42"))
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	for _, bad := range []string{"", "-", "12a", "+1", "1.0", "99999999999999999999"} {
		_, err := DecodeInt([]byte(bad))
		assert.ErrorIs(t, err, ErrWrongFieldValue, bad)
	}
}

func TestDecodeFloat(t *testing.T) {
	v, err := DecodeFloat([]byte("135155.25"))
	require.NoError(t, err)
	assert.Equal(t, 135155.25, v)

	v, err = DecodeFloat([]byte("25"))
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)

	for _, bad := range []string{"", ".", "1e5", "1.2.3", "NaN", "+1"} {
		_, err := DecodeFloat([]byte(bad))
		assert.ErrorIs(t, err, ErrWrongFieldValue, bad)
	}
}

func TestDecodeDecimal(t *testing.T) {
	d, err := DecodeDecimal([]byte("0.1"))
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "0.3", d.Add(decimal.RequireFromString("0.2")).String())
}

func TestDecodeChar(t *testing.T) {
	c, err := DecodeChar([]byte("Y"))
	require.NoError(t, err)
	assert.Equal(t, byte('Y'), c)

	_, err = DecodeChar([]byte("YN"))
	assert.ErrorIs(t, err, ErrWrongFieldValue)
}

func TestValueKinds(t *testing.T) {
	v, err := Decode([]byte("42"), TypeSeqNum)
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	i, err := v.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	_, err = v.Float64()
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
	_, err = v.Char()
	assert.ErrorIs(t, err, ErrFieldHasWrongType)

	v, err = Decode([]byte("2"), TypeChar)
	require.NoError(t, err)
	c, err := v.Char()
	require.NoError(t, err)
	assert.Equal(t, byte('2'), c)

	v, err = Decode([]byte("a|b"), TypeData)
	require.NoError(t, err)
	assert.Equal(t, KindData, v.Kind())
	assert.Equal(t, "a|b", v.String())

	_, err = Decode([]byte("x"), TypePrice)
	assert.ErrorIs(t, err, ErrWrongFieldValue)

	_, err = Decode([]byte("x"), TypeUnknown)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
}
