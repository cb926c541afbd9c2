// Package version models platform release numbers (major.minor.patch).
package version

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Version struct {
	Major, Minor, Patch int
}

// Latest compares greater than or equal to every other version.
var Latest = Version{math.MaxInt32, math.MaxInt32, math.MaxInt32}

func New(major, minor, patch int) Version {
	return Version{major, minor, patch}
}

// Parse reads "1", "1.20" or "1.20.4". Missing components are zero.
func Parse(s string) (Version, error) {
	var v Version
	if s == "latest" {
		return Latest, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 || s == "" {
		return v, errors.Errorf("malformed version %q", s)
	}
	dst := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, errors.Errorf("malformed version %q", s)
		}
		*dst[i] = n
	}
	return v, nil
}

func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool    { return v.Compare(o) < 0 }
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

func (v Version) String() string {
	if v == Latest {
		return "latest"
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}
