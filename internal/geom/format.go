package geom

import (
	"math"
	"strconv"
	"strings"
)

// String renders p as "(x, y)".
func String(p Point) string {
	return string(AppendString(nil, p))
}

// AppendString appends "(x, y)" to dst. Coordinates keep a fractional part
// and switch to exponent form outside [1e-3, 1e7), so 0 prints as "0.0" and
// 0.0001 as "1.0E-4".
func AppendString(dst []byte, p Point) []byte {
	dst = append(dst, '(')
	dst = AppendFloat(dst, p.X)
	dst = append(dst, ", "...)
	dst = AppendFloat(dst, p.Y)
	return append(dst, ')')
}

// AppendFloat appends the decimal form of f used by AppendString.
func AppendFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, "NaN"...)
	case math.IsInf(f, +1):
		return append(dst, "Infinity"...)
	case math.IsInf(f, -1):
		return append(dst, "-Infinity"...)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-3 || abs >= 1e7) {
		s := strconv.FormatFloat(f, 'E', -1, 64)
		i := strings.IndexByte(s, 'E')
		mant, exp := s[:i], s[i+1:]
		dst = append(dst, mant...)
		if strings.IndexByte(mant, '.') == -1 {
			dst = append(dst, ".0"...)
		}
		dst = append(dst, 'E')
		if exp[0] == '-' {
			dst = append(dst, '-')
		}
		exp = strings.TrimLeft(exp, "+-0")
		if exp == "" {
			exp = "0"
		}
		return append(dst, exp...)
	}
	n := len(dst)
	dst = strconv.AppendFloat(dst, f, 'f', -1, 64)
	if strings.IndexByte(string(dst[n:]), '.') == -1 {
		dst = append(dst, ".0"...)
	}
	return dst
}
