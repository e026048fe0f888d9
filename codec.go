package fix

import (
	"math"
	"strconv"
	"unsafe"

	"github.com/shopspring/decimal"
)

// AppendInt appends the canonical decimal form of v.
func AppendInt(dst []byte, v int64) []byte {
	return strconv.AppendInt(dst, v, 10)
}

// AppendFloat appends v as fixed-point decimal text without exponent and
// without trailing zeros: 25 encodes as "25", 100.12 as "100.12".
func AppendFloat(dst []byte, v float64) ([]byte, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dst, newError(CodeInvalidArgument, "%v cannot be encoded", v)
	}
	return append(dst, decimal.NewFromFloat(v).String()...), nil
}

// AppendDecimal appends d as fixed-point decimal text.
func AppendDecimal(dst []byte, d decimal.Decimal) []byte {
	return append(dst, d.String()...)
}

// appendPadded appends v left padded with zeros to width digits.
func appendPadded(dst []byte, v, width int) []byte {
	var buf [20]byte
	i := len(buf)
	for v > 0 || i == len(buf) {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	for n := len(buf) - i; n < width; n++ {
		dst = append(dst, '0')
	}
	return append(dst, buf[i:]...)
}

// DecodeInt decodes an optionally signed run of digits. Leading zeros are
// accepted.
func DecodeInt(b []byte) (int64, error) {
	if !isInt(b) {
		return 0, newError(CodeWrongFieldValue, "'%s' is not an integer", b)
	}
	v, err := strconv.ParseInt(unsafe.String(&b[0], len(b)), 10, 64)
	if err != nil {
		return 0, newError(CodeWrongFieldValue, "'%s' is out of range", b)
	}
	return v, nil
}

// DecodeFloat decodes [-]digits[.digits]. Exponents, signs other than a
// leading minus, and special values are rejected.
func DecodeFloat(b []byte) (float64, error) {
	if !isDecimal(b) {
		return 0, newError(CodeWrongFieldValue, "'%s' is not a decimal number", b)
	}
	v, err := strconv.ParseFloat(unsafe.String(&b[0], len(b)), 64)
	if err != nil {
		return 0, newError(CodeWrongFieldValue, "'%s' is out of range", b)
	}
	return v, nil
}

// DecodeDecimal decodes a FIX float token without going through float64.
func DecodeDecimal(b []byte) (decimal.Decimal, error) {
	if !isDecimal(b) {
		return decimal.Zero, newError(CodeWrongFieldValue, "'%s' is not a decimal number", b)
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.Zero, newError(CodeWrongFieldValue, "'%s': %v", b, err)
	}
	return d, nil
}

// DecodeChar decodes a single byte value.
func DecodeChar(b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, newError(CodeWrongFieldValue, "'%s' is not a single character", b)
	}
	return b[0], nil
}

func isInt(b []byte) bool {
	if len(b) > 0 && b[0] == '-' {
		b = b[1:]
	}
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isDecimal(b []byte) bool {
	if len(b) > 0 && b[0] == '-' {
		b = b[1:]
	}
	digits, dot := 0, false
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// Value is a decoded field value: a tagged union over int, float, char and
// byte string, plus the exact wire text it was decoded from or encoded to.
type Value struct {
	kind Kind
	i    int64
	f    float64
	raw  []byte
}

// Decode decodes wire text according to the declared type t. The returned
// Value references b.
func Decode(b []byte, t ValueType) (Value, error) {
	v := Value{kind: t.Kind(), raw: b}
	switch v.kind {
	case KindInt:
		n, err := DecodeInt(b)
		if err != nil {
			return Value{}, err
		}
		v.i = n
	case KindFloat:
		f, err := DecodeFloat(b)
		if err != nil {
			return Value{}, err
		}
		v.f = f
	case KindChar:
		c, err := DecodeChar(b)
		if err != nil {
			return Value{}, err
		}
		v.i = int64(c)
	case KindNone:
		return Value{}, newError(CodeFieldHasWrongType, "type %s has no codec", t)
	}
	return v, nil
}

// Kind returns the storage class of the value.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer held by an int value.
func (v Value) Int64() (int64, error) {
	if v.kind != KindInt {
		return 0, newError(CodeFieldHasWrongType, "value is %s, not int", v.kind)
	}
	return v.i, nil
}

// Float64 returns the number held by a float value.
func (v Value) Float64() (float64, error) {
	if v.kind != KindFloat {
		return 0, newError(CodeFieldHasWrongType, "value is %s, not float", v.kind)
	}
	return v.f, nil
}

// Char returns the byte held by a char value.
func (v Value) Char() (byte, error) {
	if v.kind != KindChar {
		return 0, newError(CodeFieldHasWrongType, "value is %s, not char", v.kind)
	}
	return byte(v.i), nil
}

// Bytes returns the wire text of the value. The slice is shared with the
// owning message.
func (v Value) Bytes() []byte { return v.raw }

// String returns the wire text of the value.
func (v Value) String() string { return string(v.raw) }
