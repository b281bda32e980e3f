package mesh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
)

func checkAxes(axes interop.AxesStandard) error {
	switch axes {
	case interop.AxesGl, interop.AxesEngineering:
		return nil
	}
	return errors.Errorf("Unsupported axes standard %v", axes)
}

// ConvertVec3 maps a source space vector into axes:
// gl negates z, engineering swaps y and z
func ConvertVec3(axes interop.AxesStandard, v mgl32.Vec3) mgl32.Vec3 {
	switch axes {
	case interop.AxesGl:
		return mgl32.Vec3{v[0], v[1], -v[2]}
	case interop.AxesEngineering:
		return mgl32.Vec3{v[0], v[2], v[1]}
	}
	return v
}

// ConvertVec4 is ConvertVec3 with w passed through
func ConvertVec4(axes interop.AxesStandard, v mgl32.Vec4) mgl32.Vec4 {
	xyz := ConvertVec3(axes, v.Vec3())
	return xyz.Vec4(v[3])
}

// ConvertMat4 returns the 16 floats written for a matrix, row by row.
// Gl flips the sign of every element coupling z with x or y,
// engineering swaps both the second and third rows and columns.
func ConvertMat4(axes interop.AxesStandard, m mgl32.Mat4) [16]float32 {
	var r [16]float32
	switch axes {
	case interop.AxesGl:
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				v := m.At(row, col)
				if (row == 2) != (col == 2) {
					v = -v
				}
				r[row*4+col] = v
			}
		}
	case interop.AxesEngineering:
		order := [4]int{0, 2, 1, 3}
		for i, row := range order {
			for j, col := range order {
				r[i*4+j] = m.At(row, col)
			}
		}
	default:
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				r[row*4+col] = m.At(row, col)
			}
		}
	}
	return r
}

func putFloat(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func getFloat(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}
