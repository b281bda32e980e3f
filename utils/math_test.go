package utils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDecomposeMatrix(t *testing.T) {
	for _, test := range []struct {
		pos   mgl32.Vec3
		rot   mgl32.Quat
		scale mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{-4, 0.5, 9}, mgl32.QuatRotate(mgl32.DegToRad(170), mgl32.Vec3{1, 1, 0}.Normalize()), mgl32.Vec3{2, 3, 0.5}},
		{mgl32.Vec3{0, 0, 0}, mgl32.QuatRotate(mgl32.DegToRad(179.5), mgl32.Vec3{0, 0, 1}), mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{0, 0, 0}, mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 1, 1}},
	} {
		m := ComposeMatrix(test.pos, test.rot, test.scale)
		pos, rot, scale := DecomposeMatrix(m)
		assert.InDeltaSlice(t, test.pos[:], pos[:], 1e-4)
		assert.InDeltaSlice(t, test.scale[:], scale[:], 1e-4)
		assert.True(t, QuatApproxEqual(rot, test.rot, 1e-4), "rot %v != %v", rot, test.rot)
	}
}

func TestQuatApproxEqualNearZero(t *testing.T) {
	a := mgl32.Quat{W: 1, V: mgl32.Vec3{6e-8, 0, 0}}
	assert.True(t, QuatApproxEqual(a, mgl32.QuatIdent(), 1e-5))
	assert.True(t, QuatApproxEqual(a, mgl32.QuatIdent().Scale(-1), 1e-5))
	assert.False(t, QuatApproxEqual(a, mgl32.QuatRotate(0.1, mgl32.Vec3{0, 1, 0}), 1e-5))
}

func TestFoldTransform(t *testing.T) {
	parentRot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	pos, rot := FoldTransform(mgl32.Vec3{1, 0, 0}, parentRot, mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent())
	assert.InDeltaSlice(t, []float32{1, 1, 0}, pos[:], 1e-5)
	assert.True(t, QuatApproxEqual(rot, parentRot, 1e-5))
}
