package formats

import (
	"bytes"
	"encoding/binary"
)

// fixture assembles little-endian test files.
type fixture struct {
	bytes.Buffer
}

func (f *fixture) put(values ...any) *fixture {
	for _, v := range values {
		_ = binary.Write(&f.Buffer, binary.LittleEndian, v)
	}
	return f
}

func (f *fixture) str(s string, size int) *fixture {
	b := make([]byte, size)
	copy(b, s)
	f.Write(b)
	return f
}

type testNode struct {
	name, parent string
	textureIDs   []int32
	vertices     [][3]float32
	texCoords    [][2]float32
	faces        [][7]uint16 // v0 v1 v2 t0 t1 t2 texture
	twoSided     bool
	rotKeys      int
	scaleKeys    int
	posKeys      int
}

func makeRSM(major, minor uint8, textures []string, root string, nodes []testNode) []byte {
	v := Version{Major: major, Minor: minor}
	f := &fixture{}
	f.str("GRSM", 4).put(major, minor, int32(1000), int32(ShadingFlat))
	if v.AtLeast(1, 4) {
		f.put(uint8(255))
	}
	f.put(make([]byte, 16))
	f.put(int32(len(textures)))
	for _, t := range textures {
		f.str(t, 40)
	}
	f.str(root, 40)
	f.put(int32(len(nodes)))
	for _, n := range nodes {
		f.str(n.name, 40).str(n.parent, 40)
		f.put(int32(len(n.textureIDs)), n.textureIDs)
		f.put([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
		f.put([3]float32{}, [3]float32{1, 2, 3}, float32(0), [3]float32{0, 1, 0}, [3]float32{1, 1, 1})
		f.put(int32(len(n.vertices)), n.vertices)
		f.put(int32(len(n.texCoords)))
		for _, tc := range n.texCoords {
			if v.AtLeast(1, 2) {
				f.put([4]uint8{255, 128, 0, 255})
			}
			f.put(tc)
		}
		f.put(int32(len(n.faces)))
		for _, face := range n.faces {
			f.put(face, uint16(0))
			if n.twoSided {
				f.put(int32(1))
			} else {
				f.put(int32(0))
			}
			if v.AtLeast(1, 2) {
				f.put(int32(0))
			}
		}
		if !v.AtLeast(1, 5) {
			f.put(int32(n.posKeys))
			for i := 0; i < n.posKeys; i++ {
				f.put(int32(i*100), [3]float32{float32(i), 0, 0})
			}
		}
		f.put(int32(n.rotKeys))
		for i := 0; i < n.rotKeys; i++ {
			f.put(int32(i*100), [4]float32{0, 0, 0, 1})
		}
		if v.AtLeast(1, 5) {
			f.put(int32(n.scaleKeys))
			for i := 0; i < n.scaleKeys; i++ {
				f.put(int32(i*100), [3]float32{1, 1, 1})
			}
		}
	}
	return f.Bytes()
}

func triangleNode(name, parent string) testNode {
	return testNode{
		name:       name,
		parent:     parent,
		textureIDs: []int32{0},
		vertices:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		texCoords:  [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		faces:      [][7]uint16{{0, 1, 2, 0, 1, 2, 0}},
	}
}

type testPlacement struct {
	name, model string
	position    [3]float32
}

func makeRSW(major, minor uint8, build uint32, placements []testPlacement, lights, sounds, effects int) []byte {
	v := Version{Major: major, Minor: minor}
	f := &fixture{}
	f.str("GRSW", 4).put(major, minor)
	switch {
	case v.AtLeast(2, 5):
		f.put(build, uint8(0))
	case v.AtLeast(2, 2):
		f.put(uint8(build))
	}
	f.str("test.ini", 40).str("test.gnd", 40)
	if v.AtLeast(1, 4) {
		f.str("test.gat", 40).str("", 40)
	}
	if v.AtLeast(1, 3) && !v.AtLeast(2, 6) {
		f.put(make([]byte, 24))
	}
	if v.AtLeast(1, 5) {
		f.put(make([]byte, 32))
	}
	if v.AtLeast(1, 7) {
		f.put(float32(0.5))
	}
	if v.AtLeast(1, 6) {
		f.put(make([]byte, 16))
	}

	f.put(int32(len(placements) + lights + sounds + effects))
	for i := 0; i < lights; i++ {
		f.put(int32(ObjectLight)).str("light", 80).put(make([]byte, 28))
	}
	for _, p := range placements {
		f.put(int32(ObjectModel)).str(p.name, 40).put(int32(0), float32(1), int32(0))
		if v.AtLeast(2, 6) && build >= 162 {
			f.put(uint8(0))
		}
		f.str(p.model, 80).str("", 80)
		f.put(p.position, [3]float32{0, 90, 0}, [3]float32{1, 1, 1})
	}
	for i := 0; i < sounds; i++ {
		f.put(int32(ObjectSound)).str("sound", 80).str("a.wav", 80).put(make([]byte, 28))
		if v.AtLeast(2, 0) {
			f.put(float32(4))
		}
	}
	for i := 0; i < effects; i++ {
		f.put(int32(ObjectEffect)).str("fx", 80).put(make([]byte, 36))
	}
	return f.Bytes()
}
