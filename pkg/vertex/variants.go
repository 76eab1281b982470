package vertex

import "github.com/Faultbox/meshforge/pkg/math"

// Empty carries no material attributes.
type Empty struct {
	noColors
	noTexCoords
}

// Color1 carries one vertex color.
type Color1 struct {
	color1
	noTexCoords
}

// Color2 carries two vertex colors.
type Color2 struct {
	color2
	noTexCoords
}

// Texture1 carries one texture coordinate set.
type Texture1 struct {
	noColors
	texture1
}

// Texture2 carries two texture coordinate sets.
type Texture2 struct {
	noColors
	texture2
}

// Color1Texture1 carries one color and one texture coordinate set.
type Color1Texture1 struct {
	color1
	texture1
}

// Color1Texture2 carries one color and two texture coordinate sets.
type Color1Texture2 struct {
	color1
	texture2
}

// Color2Texture1 carries two colors and one texture coordinate set.
type Color2Texture1 struct {
	color2
	texture1
}

// Color2Texture2 carries two colors and two texture coordinate sets.
type Color2Texture2 struct {
	color2
	texture2
}

var (
	_ Material = (*Empty)(nil)
	_ Material = (*Color1)(nil)
	_ Material = (*Color2)(nil)
	_ Material = (*Texture1)(nil)
	_ Material = (*Texture2)(nil)
	_ Material = (*Color1Texture1)(nil)
	_ Material = (*Color1Texture2)(nil)
	_ Material = (*Color2Texture1)(nil)
	_ Material = (*Color2Texture2)(nil)
)

// NewEmpty returns a fragment without attributes.
func NewEmpty() *Empty { return &Empty{} }

// NewColor1 returns a fragment with one color.
func NewColor1(c math.Vec4) *Color1 {
	return &Color1{color1: color1{Color0: c}}
}

// NewColor2 returns a fragment with two colors.
func NewColor2(c0, c1 math.Vec4) *Color2 {
	return &Color2{color2: color2{Color0: c0, Color1: c1}}
}

// NewTexture1 returns a fragment with one texture coordinate set.
func NewTexture1(uv math.Vec2) *Texture1 {
	return &Texture1{texture1: texture1{TexCoord0: uv}}
}

// NewTexture2 returns a fragment with two texture coordinate sets.
func NewTexture2(uv0, uv1 math.Vec2) *Texture2 {
	return &Texture2{texture2: texture2{TexCoord0: uv0, TexCoord1: uv1}}
}

// NewColor1Texture1 returns a fragment with one color and one texture
// coordinate set.
func NewColor1Texture1(c math.Vec4, uv math.Vec2) *Color1Texture1 {
	return &Color1Texture1{color1: color1{Color0: c}, texture1: texture1{TexCoord0: uv}}
}

// NewColor1Texture2 returns a fragment with one color and two texture
// coordinate sets.
func NewColor1Texture2(c math.Vec4, uv0, uv1 math.Vec2) *Color1Texture2 {
	return &Color1Texture2{color1: color1{Color0: c}, texture2: texture2{TexCoord0: uv0, TexCoord1: uv1}}
}

// NewColor2Texture1 returns a fragment with two colors and one texture
// coordinate set.
func NewColor2Texture1(c0, c1 math.Vec4, uv math.Vec2) *Color2Texture1 {
	return &Color2Texture1{color2: color2{Color0: c0, Color1: c1}, texture1: texture1{TexCoord0: uv}}
}

// NewColor2Texture2 returns a fragment with two colors and two texture
// coordinate sets.
func NewColor2Texture2(c0, c1 math.Vec4, uv0, uv1 math.Vec2) *Color2Texture2 {
	return &Color2Texture2{
		color2:   color2{Color0: c0, Color1: c1},
		texture2: texture2{TexCoord0: uv0, TexCoord1: uv1},
	}
}

// New returns a zero fragment of the closed variant with the given slot
// counts, or nil when no variant has that shape.
func New(colors, texCoords int) Material {
	switch [2]int{colors, texCoords} {
	case [2]int{0, 0}:
		return &Empty{}
	case [2]int{1, 0}:
		return &Color1{}
	case [2]int{2, 0}:
		return &Color2{}
	case [2]int{0, 1}:
		return &Texture1{}
	case [2]int{0, 2}:
		return &Texture2{}
	case [2]int{1, 1}:
		return &Color1Texture1{}
	case [2]int{1, 2}:
		return &Color1Texture2{}
	case [2]int{2, 1}:
		return &Color2Texture1{}
	case [2]int{2, 2}:
		return &Color2Texture2{}
	}
	return nil
}
