package utils

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Column scale factors of a TRS matrix
func MatrixScale(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

func MatrixPosition(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// MatrixRotation divides scale out of the rotation block before converting it
func MatrixRotation(m mgl32.Mat4) mgl32.Quat {
	s := MatrixScale(m)
	r := mgl32.Ident4()
	for c := 0; c < 3; c++ {
		inv := float32(1)
		if s[c] != 0 {
			inv = 1 / s[c]
		}
		for row := 0; row < 3; row++ {
			r.Set(row, c, m.At(row, c)*inv)
		}
	}
	return mgl32.Mat4ToQuat(r).Normalize()
}

func DecomposeMatrix(m mgl32.Mat4) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	return MatrixPosition(m), MatrixRotation(m), MatrixScale(m)
}

func ComposeMatrix(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// FoldTransform pushes a child local rotation/position through its parent
// local rotation/position, so the result is relative to the grandparent.
func FoldTransform(parentPos mgl32.Vec3, parentRot mgl32.Quat, pos mgl32.Vec3, rot mgl32.Quat) (mgl32.Vec3, mgl32.Quat) {
	return parentRot.Rotate(pos).Add(parentPos), parentRot.Mul(rot)
}

func QuatApproxEqual(a, b mgl32.Quat, eps float32) bool {
	// q and -q are the same rotation
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	if math32.Abs(a.W-b.W) > eps {
		return false
	}
	for i := range a.V {
		if math32.Abs(a.V[i]-b.V[i]) > eps {
			return false
		}
	}
	return true
}
