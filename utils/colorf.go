package utils

import "github.com/chewxy/math32"

type ColorFloat [4]float32

var ColorWhite = ColorFloat{1, 1, 1, 1}

func (c *ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float32(256*256 - 1)
	r = uint32(clamp01(c[0]) * mf)
	g = uint32(clamp01(c[1]) * mf)
	b = uint32(clamp01(c[2]) * mf)
	a = uint32(clamp01(c[3]) * mf)
	return
}

func NewColorFloatA(c []float32) ColorFloat {
	return ColorFloat{c[0], c[1], c[2], c[3]}
}

func NewColorFloat(c []float32) ColorFloat {
	return ColorFloat{c[0], c[1], c[2], 1.0}
}

func gammaToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// Linear converts sRGB colour channels to linear, alpha is kept
func (c ColorFloat) Linear() ColorFloat {
	return ColorFloat{gammaToLinear(c[0]), gammaToLinear(c[1]), gammaToLinear(c[2]), c[3]}
}

func (c ColorFloat) Scale(f float32) ColorFloat {
	return ColorFloat{c[0] * f, c[1] * f, c[2] * f, c[3] * f}
}

func (c ColorFloat) RGB() [3]float32 {
	return [3]float32{c[0], c[1], c[2]}
}

// IsBlack ignores alpha
func (c ColorFloat) IsBlack() bool {
	return c[0] <= 0 && c[1] <= 0 && c[2] <= 0
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
