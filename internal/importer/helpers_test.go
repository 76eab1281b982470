package importer

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Faultbox/meshforge/pkg/formats"
)

var identity3 = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}

func white(u, v float32) formats.TexCoord {
	return formats.TexCoord{Color: [4]uint8{255, 255, 255, 255}, U: u, V: v}
}

// triNode is a single triangle in the XZ plane facing -Y.
func triNode(name, parent string) formats.RSMNode {
	return formats.RSMNode{
		Name:       name,
		Parent:     parent,
		TextureIDs: []int32{0},
		Mat3:       identity3,
		Scale:      [3]float32{1, 1, 1},
		Vertices:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		TexCoords:  []formats.TexCoord{white(0, 0), white(1, 0), white(0, 1)},
		Faces: []formats.Face{
			{VertexIDs: [3]uint16{0, 1, 2}, TexCoordIDs: [3]uint16{0, 1, 2}},
		},
	}
}

func testRSM(nodes ...formats.RSMNode) *formats.RSM {
	return &formats.RSM{
		Version:  formats.Version{Major: 1, Minor: 5},
		Textures: []string{"wall.bmp"},
		RootNode: nodes[0].Name,
		Nodes:    nodes,
	}
}

// encodeRSM writes m in the 1.5 layout.
func encodeRSM(t *testing.T, m *formats.RSM) []byte {
	t.Helper()
	var buf bytes.Buffer
	put := func(values ...any) {
		for _, v := range values {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	str := func(s string, size int) {
		b := make([]byte, size)
		copy(b, s)
		buf.Write(b)
	}

	str("GRSM", 4)
	put(uint8(1), uint8(5), m.AnimLength, int32(m.Shading), uint8(255), make([]byte, 16))
	put(int32(len(m.Textures)))
	for _, tex := range m.Textures {
		str(tex, 40)
	}
	str(m.RootNode, 40)
	put(int32(len(m.Nodes)))
	for _, n := range m.Nodes {
		str(n.Name, 40)
		str(n.Parent, 40)
		put(int32(len(n.TextureIDs)), n.TextureIDs)
		put(n.Mat3, n.Offset, n.Position, n.RotAngle, n.RotAxis, n.Scale)
		put(int32(len(n.Vertices)), n.Vertices)
		put(int32(len(n.TexCoords)))
		for _, tc := range n.TexCoords {
			put(tc.Color, tc.U, tc.V)
		}
		put(int32(len(n.Faces)))
		for _, f := range n.Faces {
			twoSided := int32(0)
			if f.TwoSided {
				twoSided = 1
			}
			put(f.VertexIDs, f.TexCoordIDs, f.TextureID, uint16(0), twoSided, f.SmoothGroup)
		}
		put(int32(len(n.RotKeys)), n.RotKeys)
		put(int32(len(n.ScaleKeys)), n.ScaleKeys)
	}
	return buf.Bytes()
}
