package importer

import (
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

// Faces with a smaller normal are degenerate.
const degenerateArea = 1e-5

// Positions closer than this share a smoothed normal.
const smoothEpsilon = 0.001

type triangle struct {
	texture string
	corners [3]mesh.Vertex
}

// buildMesh converts the faces of n into a mesh in node space, with the
// vertex-only Offset and Mat3 transform baked in. It returns nil for nodes
// without drawable faces.
func buildMesh(m *formats.RSM, n *formats.RSMNode, opts Options) (*mesh.Builder, error) {
	if len(n.Faces) == 0 {
		return nil, nil
	}

	vm := math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]).Mul(math.FromMat3x3(n.Mat3))
	positions := make([]math.Vec3, len(n.Vertices))
	for i, v := range n.Vertices {
		positions[i] = vm.TransformPoint(math.Vec3FromArray(v))
	}

	var tris []triangle
	for _, f := range n.Faces {
		if !validFace(n, f) {
			continue
		}
		p0, p1, p2 := positions[f.VertexIDs[0]], positions[f.VertexIDs[1]], positions[f.VertexIDs[2]]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		if normal.Length() < degenerateArea {
			continue
		}
		normal = normal.Normalize()

		corner := func(j int, nrm math.Vec3) mesh.Vertex {
			return mesh.Vertex{
				Position: positions[f.VertexIDs[j]],
				Normal:   nrm,
				Material: faceMaterial(n, f.TexCoordIDs[j]),
			}
		}
		texture := m.TextureName(n, f)
		tris = append(tris, triangle{texture, [3]mesh.Vertex{corner(0, normal), corner(1, normal), corner(2, normal)}})
		if f.TwoSided || opts.ForceTwoSided {
			back := normal.Scale(-1)
			tris = append(tris, triangle{texture, [3]mesh.Vertex{corner(2, back), corner(1, back), corner(0, back)}})
		}
	}
	if len(tris) == 0 {
		return nil, nil
	}
	if opts.SmoothNormals {
		smoothNormals(tris)
	}

	b := mesh.New(n.Name)
	for _, t := range tris {
		if _, err := b.Primitive(t.texture).AddTriangle(t.corners[0], t.corners[1], t.corners[2]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func validFace(n *formats.RSMNode, f formats.Face) bool {
	for _, id := range f.VertexIDs {
		if int(id) >= len(n.Vertices) {
			return false
		}
	}
	return true
}

// faceMaterial reads vertex color and UV. Missing texture coordinates give
// white and (0, 0).
func faceMaterial(n *formats.RSMNode, id uint16) *vertex.Color1Texture1 {
	if int(id) >= len(n.TexCoords) {
		return vertex.NewColor1Texture1(math.Vec4{1, 1, 1, 1}, math.Vec2{})
	}
	tc := n.TexCoords[id]
	c := math.Vec4{
		float32(tc.Color[0]) / 255,
		float32(tc.Color[1]) / 255,
		float32(tc.Color[2]) / 255,
		float32(tc.Color[3]) / 255,
	}
	return vertex.NewColor1Texture1(c, math.Vec2{X: tc.U, Y: tc.V})
}

// smoothNormals averages the normals of corners sharing a position. Only
// normals facing the same hemisphere are combined, so the two sides of a
// two-sided face stay apart.
func smoothNormals(tris []triangle) {
	type ref struct{ tri, corner int }
	groups := make(map[[3]int32][]ref)
	for i := range tris {
		for j, v := range tris[i].corners {
			k := [3]int32{
				int32(v.Position.X / smoothEpsilon),
				int32(v.Position.Y / smoothEpsilon),
				int32(v.Position.Z / smoothEpsilon),
			}
			groups[k] = append(groups[k], ref{i, j})
		}
	}

	for _, refs := range groups {
		if len(refs) < 2 {
			continue
		}
		face := make([]math.Vec3, len(refs))
		for i, r := range refs {
			face[i] = tris[r.tri].corners[r.corner].Normal
		}
		for i, r := range refs {
			var sum math.Vec3
			for _, n := range face {
				if n.Dot(face[i]) > 0 {
					sum = sum.Add(n)
				}
			}
			tris[r.tri].corners[r.corner].Normal = sum.Normalize()
		}
	}
}
