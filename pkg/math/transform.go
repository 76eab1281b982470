package math

// Transform is a decomposed local transform: scale, then rotation, then
// translation.
type Transform struct {
	Scale       Vec3
	Rotation    Quat
	Translation Vec3
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() Transform {
	return Transform{Scale: One(), Rotation: QuatIdentity()}
}

// Matrix composes T * R * S.
func (t Transform) Matrix() Mat4 {
	m := t.Rotation.ToMat4()
	for i := 0; i < 3; i++ {
		m[i] *= t.Scale.X
		m[4+i] *= t.Scale.Y
		m[8+i] *= t.Scale.Z
	}
	m[12], m[13], m[14] = t.Translation.X, t.Translation.Y, t.Translation.Z
	return m
}

// IsIdentity reports whether the transform is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t == IdentityTransform()
}

// Decompose splits an affine matrix into scale, rotation and translation.
// A negative determinant is folded into the X scale. Shear is discarded.
func Decompose(m Mat4) Transform {
	sx := m.Column(0).Length()
	sy := m.Column(1).Length()
	sz := m.Column(2).Length()
	if m.Determinant3() < 0 {
		sx = -sx
	}

	t := Transform{
		Scale:       Vec3{sx, sy, sz},
		Translation: Vec3{m[12], m[13], m[14]},
		Rotation:    QuatIdentity(),
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	r := Identity()
	for i := 0; i < 3; i++ {
		r[i] = m[i] / sx
		r[4+i] = m[4+i] / sy
		r[8+i] = m[8+i] / sz
	}
	t.Rotation = QuatFromMat4(r)
	return t
}
