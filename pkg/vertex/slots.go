package vertex

import "github.com/Faultbox/meshforge/pkg/math"

// The closed variants are composed from one color half and one texcoord
// half. Each half implements its side of Material.

type noColors struct{}

func (noColors) MaxColors() int { return 0 }

func (noColors) Color(i int) (math.Vec4, error) { return math.Vec4{}, colorIndexError(i, 0) }

func (*noColors) SetColor(i int, _ math.Vec4) error { return colorIndexError(i, 0) }

type color1 struct {
	Color0 math.Vec4
}

func (color1) MaxColors() int { return 1 }

func (c color1) Color(i int) (math.Vec4, error) {
	if i != 0 {
		return math.Vec4{}, colorIndexError(i, 1)
	}
	return c.Color0, nil
}

func (c *color1) SetColor(i int, v math.Vec4) error {
	if i != 0 {
		return colorIndexError(i, 1)
	}
	c.Color0 = v
	return nil
}

type color2 struct {
	Color0, Color1 math.Vec4
}

func (color2) MaxColors() int { return 2 }

func (c color2) Color(i int) (math.Vec4, error) {
	switch i {
	case 0:
		return c.Color0, nil
	case 1:
		return c.Color1, nil
	}
	return math.Vec4{}, colorIndexError(i, 2)
}

func (c *color2) SetColor(i int, v math.Vec4) error {
	switch i {
	case 0:
		c.Color0 = v
	case 1:
		c.Color1 = v
	default:
		return colorIndexError(i, 2)
	}
	return nil
}

type noTexCoords struct{}

func (noTexCoords) MaxTexCoords() int { return 0 }

func (noTexCoords) TexCoord(i int) (math.Vec2, error) { return math.Vec2{}, texCoordIndexError(i, 0) }

func (*noTexCoords) SetTexCoord(i int, _ math.Vec2) error { return texCoordIndexError(i, 0) }

type texture1 struct {
	TexCoord0 math.Vec2
}

func (texture1) MaxTexCoords() int { return 1 }

func (t texture1) TexCoord(i int) (math.Vec2, error) {
	if i != 0 {
		return math.Vec2{}, texCoordIndexError(i, 1)
	}
	return t.TexCoord0, nil
}

func (t *texture1) SetTexCoord(i int, uv math.Vec2) error {
	if i != 0 {
		return texCoordIndexError(i, 1)
	}
	t.TexCoord0 = uv
	return nil
}

type texture2 struct {
	TexCoord0, TexCoord1 math.Vec2
}

func (texture2) MaxTexCoords() int { return 2 }

func (t texture2) TexCoord(i int) (math.Vec2, error) {
	switch i {
	case 0:
		return t.TexCoord0, nil
	case 1:
		return t.TexCoord1, nil
	}
	return math.Vec2{}, texCoordIndexError(i, 2)
}

func (t *texture2) SetTexCoord(i int, uv math.Vec2) error {
	switch i {
	case 0:
		t.TexCoord0 = uv
	case 1:
		t.TexCoord1 = uv
	default:
		return texCoordIndexError(i, 2)
	}
	return nil
}
