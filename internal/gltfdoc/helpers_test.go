package gltfdoc

import (
	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/math"
)

func newVec3Track(end math.Vec3) *anim.Track[math.Vec3] {
	return anim.NewVec3Track().SetPoint(0, math.Vec3{}).SetPoint(1, end)
}

func newQuatTrack(end math.Quat) *anim.Track[math.Quat] {
	return anim.NewQuatTrack().SetPoint(0, math.QuatIdentity()).SetPoint(1, end)
}
