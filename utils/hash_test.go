package utils

import "testing"

var hashTests = []struct {
	in_str  string
	in_init uint64
	out     uint64
}{
	{"", 0, 0x0},
	{"@", 0, 0x40},
	{"010", 0, 0xbe8af},
	{"014", 0, 0xbe8b3},
	{"A", 1, 0x7f + 0x41},
}

func TestStringHash64(t *testing.T) {
	for _, test := range hashTests {
		result := StringHash64(test.in_str, test.in_init)
		if result != test.out {
			t.Errorf("StringHash64(%q,%d)=%#x; expected %#x", test.in_str, test.in_init, result, test.out)
		}
	}
}

func TestPathUid(t *testing.T) {
	if PathUid("") != 0 {
		t.Errorf("empty path must map to zero")
	}
	paths := []string{"Meshes/cube_-_fbx~~Cube_4300000", "Textures/brick_-_png", "a", "b"}
	seen := make(map[uint64]string)
	for _, p := range paths {
		id := PathUid(p)
		if id != PathUid(p) {
			t.Errorf("PathUid(%q) not deterministic", p)
		}
		if id&(1<<63) == 0 {
			t.Errorf("PathUid(%q)=%#x has high bit clear", p, id)
		}
		if other, ok := seen[id]; ok {
			t.Errorf("PathUid collision %q and %q", p, other)
		}
		seen[id] = p
	}
}
