package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ygmpkk/pointst/internal/geom"
)

var errInvalidNumberOfArguments = errors.New("invalid number of arguments")
var errPointNotFound = errors.New("point not found")

func errInvalidArgument(arg string) error {
	return fmt.Errorf("invalid argument '%s'", arg)
}

func tokenval(vs []string) (nvs []string, token string, ok bool) {
	if len(vs) > 0 {
		token = vs[0]
		nvs = vs[1:]
		ok = true
	}
	return
}

// tokenpoint reads an x y pair.
func tokenpoint(vs []string) (nvs []string, p geom.Point, err error) {
	var xs, ys string
	var ok bool
	if vs, xs, ok = tokenval(vs); !ok {
		return nil, p, errInvalidNumberOfArguments
	}
	if vs, ys, ok = tokenval(vs); !ok {
		return nil, p, errInvalidNumberOfArguments
	}
	p, err = geom.ParsePoint(xs, ys)
	if err != nil {
		if errors.Is(err, geom.ErrNotFinite) {
			return nil, p, err
		}
		if _, err := strconv.ParseFloat(xs, 64); err != nil {
			return nil, p, errInvalidArgument(xs)
		}
		return nil, p, errInvalidArgument(ys)
	}
	return vs, p, nil
}

func lc(s1, s2 string) bool {
	if len(s1) != len(s2) {
		return false
	}
	for i := 0; i < len(s1); i++ {
		ch := s1[i]
		if ch >= 'A' && ch <= 'Z' {
			if ch+32 != s2[i] {
				return false
			}
		} else if ch != s2[i] {
			return false
		}
	}
	return true
}
