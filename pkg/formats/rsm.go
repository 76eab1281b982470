package formats

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrInvalidCount          = errors.New("element count out of range")
)

// Sanity limits on element counts.
const (
	maxNodes     = 10000
	maxTextures  = 1000
	maxVertices  = 100000
	maxKeyframes = 10000
)

// ShadingType is the model's shading mode.
type ShadingType int32

const (
	ShadingNone   ShadingType = 0
	ShadingFlat   ShadingType = 1
	ShadingSmooth ShadingType = 2
)

func (s ShadingType) String() string {
	switch s {
	case ShadingNone:
		return "None"
	case ShadingFlat:
		return "Flat"
	case ShadingSmooth:
		return "Smooth"
	}
	return fmt.Sprintf("Unknown(%d)", int32(s))
}

// TexCoord is a texture coordinate with its vertex color.
type TexCoord struct {
	Color [4]uint8 // RGBA, white before 1.2
	U, V  float32
}

// Face is one triangle of a node.
type Face struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into the node's TextureIDs
	TwoSided    bool
	SmoothGroup int32
}

// PosKey, RotKey and ScaleKey are node keyframes. Frame is in
// milliseconds.
type PosKey struct {
	Frame    int32
	Position [3]float32
}

type RotKey struct {
	Frame      int32
	Quaternion [4]float32 // x, y, z, w
}

type ScaleKey struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one node of a model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32

	// Mat3 and Offset transform the node's own vertices only; Position,
	// RotAngle/RotAxis and Scale are inherited by children.
	Mat3     [9]float32
	Offset   [3]float32
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []TexCoord
	Faces     []Face

	PosKeys   []PosKey
	RotKeys   []RotKey
	ScaleKeys []ScaleKey
}

// HasKeys reports whether the node carries any keyframe.
func (n *RSMNode) HasKeys() bool {
	return len(n.PosKeys)+len(n.RotKeys)+len(n.ScaleKeys) > 0
}

// VolumeBox is a collision box.
type VolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32
}

// RSM is a parsed model.
type RSM struct {
	Version     Version
	AnimLength  int32 // milliseconds
	Shading     ShadingType
	Alpha       float32
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []VolumeBox
}

// ParseRSM parses RSM versions 1.1 through 2.1.
func ParseRSM(data []byte) (*RSM, error) {
	r := newReader(data, ErrTruncatedRSMData)
	if r.str(4) != "GRSM" {
		if r.err != nil {
			return nil, r.err
		}
		return nil, ErrInvalidRSMMagic
	}

	m := &RSM{Version: Version{Major: r.u8(), Minor: r.u8()}}
	if r.err != nil {
		return nil, r.err
	}
	if !m.Version.AtLeast(1, 1) || m.Version.AtLeast(2, 2) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, m.Version)
	}

	m.AnimLength = r.i32()
	m.Shading = ShadingType(r.i32())
	m.Alpha = 1
	if m.Version.AtLeast(1, 4) {
		m.Alpha = float32(r.u8()) / 255
	}
	r.skip(16)

	m.Textures = make([]string, r.count(maxTextures, ErrInvalidCount))
	for i := range m.Textures {
		m.Textures[i] = r.str(40)
	}
	m.RootNode = r.str(40)
	if r.err != nil {
		return nil, fmt.Errorf("header: %w", r.err)
	}

	m.Nodes = make([]RSMNode, r.count(maxNodes, ErrInvalidNodeCount))
	if r.err != nil {
		return nil, r.err
	}
	for i := range m.Nodes {
		readNode(r, m.Version, &m.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("node %d: %w", i, r.err)
		}
	}

	// Volume boxes are optional trailing data.
	if r.remaining() >= 4 {
		m.VolumeBoxes = make([]VolumeBox, r.count(maxTextures, ErrInvalidCount))
		for i := range m.VolumeBoxes {
			b := &m.VolumeBoxes[i]
			b.Size, b.Position, b.Rotation = r.vec3(), r.vec3(), r.vec3()
			if m.Version.AtLeast(1, 3) {
				b.Flag = r.i32()
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("volume boxes: %w", r.err)
		}
	}
	return m, nil
}

func readNode(r *reader, v Version, n *RSMNode) {
	n.Name = r.str(40)
	n.Parent = r.str(40)

	n.TextureIDs = make([]int32, r.count(maxTextures, ErrInvalidCount))
	for i := range n.TextureIDs {
		n.TextureIDs[i] = r.i32()
	}

	for i := range n.Mat3 {
		n.Mat3[i] = r.f32()
	}
	n.Offset = r.vec3()
	n.Position = r.vec3()
	n.RotAngle = r.f32()
	n.RotAxis = r.vec3()
	n.Scale = r.vec3()

	n.Vertices = make([][3]float32, r.count(maxVertices, ErrInvalidCount))
	for i := range n.Vertices {
		n.Vertices[i] = r.vec3()
	}

	n.TexCoords = make([]TexCoord, r.count(maxVertices, ErrInvalidCount))
	for i := range n.TexCoords {
		tc := &n.TexCoords[i]
		tc.Color = [4]uint8{255, 255, 255, 255}
		if v.AtLeast(1, 2) {
			tc.Color = [4]uint8{r.u8(), r.u8(), r.u8(), r.u8()}
		}
		tc.U, tc.V = r.f32(), r.f32()
	}

	n.Faces = make([]Face, r.count(maxVertices, ErrInvalidCount))
	for i := range n.Faces {
		f := &n.Faces[i]
		f.VertexIDs = [3]uint16{r.u16(), r.u16(), r.u16()}
		f.TexCoordIDs = [3]uint16{r.u16(), r.u16(), r.u16()}
		f.TextureID = r.u16()
		r.skip(2)
		f.TwoSided = r.i32() != 0
		if v.AtLeast(1, 2) {
			f.SmoothGroup = r.i32()
		}
	}

	if !v.AtLeast(1, 5) {
		n.PosKeys = make([]PosKey, r.count(maxKeyframes, ErrInvalidCount))
		for i := range n.PosKeys {
			n.PosKeys[i] = PosKey{Frame: r.i32(), Position: r.vec3()}
		}
	}

	n.RotKeys = make([]RotKey, r.count(maxKeyframes, ErrInvalidCount))
	for i := range n.RotKeys {
		n.RotKeys[i] = RotKey{Frame: r.i32(), Quaternion: r.vec4()}
	}

	if v.AtLeast(1, 5) {
		n.ScaleKeys = make([]ScaleKey, r.count(maxKeyframes, ErrInvalidCount))
		for i := range n.ScaleKeys {
			n.ScaleKeys[i] = ScaleKey{Frame: r.i32(), Scale: r.vec3()}
		}
	}
}

// ParseRSMFile reads and parses an RSM file.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// VertexCount returns the vertex count over all nodes.
func (m *RSM) VertexCount() int {
	total := 0
	for i := range m.Nodes {
		total += len(m.Nodes[i].Vertices)
	}
	return total
}

// FaceCount returns the face count over all nodes.
func (m *RSM) FaceCount() int {
	total := 0
	for i := range m.Nodes {
		total += len(m.Nodes[i].Faces)
	}
	return total
}

// NodeByName returns the node called name, or nil.
func (m *RSM) NodeByName(name string) *RSMNode {
	for i := range m.Nodes {
		if m.Nodes[i].Name == name {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Root returns the node named by RootNode, falling back to the first
// node without a resolvable parent.
func (m *RSM) Root() *RSMNode {
	if n := m.NodeByName(m.RootNode); n != nil {
		return n
	}
	for i := range m.Nodes {
		if m.IsTopLevel(&m.Nodes[i]) {
			return &m.Nodes[i]
		}
	}
	return nil
}

// IsTopLevel reports whether n has no parent in the model. Nodes naming
// themselves or a missing node as parent count as top level.
func (m *RSM) IsTopLevel(n *RSMNode) bool {
	return n.Parent == "" || n.Parent == n.Name || m.NodeByName(n.Parent) == nil
}

// Children returns the nodes whose parent is called name, in file order.
func (m *RSM) Children(name string) []*RSMNode {
	var out []*RSMNode
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if n.Parent == name && n.Name != name {
			out = append(out, n)
		}
	}
	return out
}

// HasAnimation reports whether the model animates. A single keyframe is a
// static pose, not an animation.
func (m *RSM) HasAnimation() bool {
	if m.AnimLength <= 0 {
		return false
	}
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if len(n.RotKeys) > 1 || len(n.PosKeys) > 1 || len(n.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}

// TextureName resolves a face's texture through the node's texture table.
// It returns "" when either index is out of range.
func (m *RSM) TextureName(n *RSMNode, f Face) string {
	if int(f.TextureID) >= len(n.TextureIDs) {
		return ""
	}
	id := n.TextureIDs[f.TextureID]
	if id < 0 || int(id) >= len(m.Textures) {
		return ""
	}
	return m.Textures[id]
}
