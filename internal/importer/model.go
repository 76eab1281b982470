// Package importer converts parsed RSM models into source scene assets: one
// mesh per geometry node and a node hierarchy carrying the model's
// keyframes. Placing a model builds a fresh armature that shares the
// model's meshes, so a world full of copies compiles each mesh once.
package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/scene"
)

// AnimationName names the tracks an RSM animation is imported into.
const AnimationName = "Default"

// ErrNoGeometry is returned for models without a single drawable face.
var ErrNoGeometry = errors.New("model has no geometry")

// Options controls how a model is converted.
type Options struct {
	// TimeScale converts keyframe frames to seconds.
	TimeScale float32
	// FlipY mirrors the model vertically into a Y-up frame.
	FlipY bool
	// ForceTwoSided emits a back face for every face.
	ForceTwoSided bool
	// SmoothNormals averages face normals at shared positions.
	SmoothNormals bool
	Logger        *zap.Logger
}

// DefaultOptions returns the conversion settings for game data.
func DefaultOptions() Options {
	return Options{TimeScale: 0.001, FlipY: true, SmoothNormals: true}
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max math.Vec3
}

// Center returns the middle of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b *Bounds) extend(p math.Vec3) {
	b.Min = math.Vec3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = math.Vec3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
}

type nodeSpec struct {
	name     string
	parent   int // -1 for top level
	children []int
	rest     math.Transform
	mesh     *mesh.Builder

	rotation    []anim.Keyframe[math.Quat]
	scale       []anim.Keyframe[math.Vec3]
	translation []anim.Keyframe[math.Vec3]
}

// Model is an imported RSM ready to be placed into scenes.
type Model struct {
	Name   string
	Source *formats.RSM
	// Bounds holds the rest pose extent before centering.
	Bounds Bounds

	opts  Options
	nodes []nodeSpec
	roots []int
}

// Import converts m. The name labels the model's wrapper node.
func Import(name string, m *formats.RSM, opts Options) (*Model, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Named("importer")
	}
	if opts.TimeScale == 0 {
		opts.TimeScale = DefaultOptions().TimeScale
	}

	model := &Model{Name: name, Source: m, opts: opts, nodes: make([]nodeSpec, len(m.Nodes))}
	animated := m.HasAnimation()
	for i := range m.Nodes {
		n := &m.Nodes[i]
		ns := &model.nodes[i]
		ns.name = n.Name
		ns.rest = restTransform(n)
		if animated {
			model.addKeys(ns, n)
		}

		b, err := buildMesh(m, n, opts)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		ns.mesh = b
	}
	model.link()

	if !model.computeBounds() {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeometry)
	}
	opts.Logger.Debug("model imported",
		zap.String("model", name),
		zap.String("version", m.Version.String()),
		zap.Int("nodes", len(model.nodes)),
		zap.Int("meshes", len(model.Meshes())),
		zap.Bool("animated", animated))
	return model, nil
}

// link resolves parent names into indices. Nodes only reachable through a
// parent cycle are promoted to top level.
func (m *Model) link() {
	byName := make(map[string]int, len(m.nodes))
	for i := len(m.nodes) - 1; i >= 0; i-- {
		byName[m.nodes[i].name] = i
	}

	for i := range m.nodes {
		n := &m.Source.Nodes[i]
		m.nodes[i].parent = -1
		if m.Source.IsTopLevel(n) {
			continue
		}
		m.nodes[i].parent = byName[n.Parent]
	}

	reached := make([]bool, len(m.nodes))
	var visit func(i int)
	visit = func(i int) {
		reached[i] = true
		for j := range m.nodes {
			if m.nodes[j].parent == i && !reached[j] {
				m.nodes[i].children = append(m.nodes[i].children, j)
				visit(j)
			}
		}
	}
	for i := range m.nodes {
		if m.nodes[i].parent == -1 {
			m.roots = append(m.roots, i)
			visit(i)
		}
	}
	for i := range m.nodes {
		if !reached[i] {
			m.opts.Logger.Warn("node parent cycle, promoting to top level",
				zap.String("model", m.Name), zap.String("node", m.nodes[i].name))
			m.nodes[i].parent = -1
			m.roots = append(m.roots, i)
			visit(i)
		}
	}
}

func restTransform(n *formats.RSMNode) math.Transform {
	t := math.Transform{
		Scale:       math.Vec3FromArray(n.Scale),
		Rotation:    math.QuatFromAxisAngle(math.Vec3FromArray(n.RotAxis), n.RotAngle),
		Translation: math.Vec3FromArray(n.Position),
	}
	// Rotation keys replace the axis-angle rotation.
	if len(n.RotKeys) > 0 {
		t.Rotation = math.QuatFromArray(n.RotKeys[0].Quaternion).Normalize()
	}
	if len(n.ScaleKeys) > 0 {
		t.Scale = mulVec3(t.Scale, math.Vec3FromArray(n.ScaleKeys[0].Scale))
	}
	return t
}

func (m *Model) addKeys(ns *nodeSpec, n *formats.RSMNode) {
	seconds := func(frame int32) float32 { return float32(frame) * m.opts.TimeScale }

	if len(n.RotKeys) > 1 {
		for _, k := range n.RotKeys {
			q := math.QuatFromArray(k.Quaternion).Normalize()
			ns.rotation = append(ns.rotation, anim.Keyframe[math.Quat]{Time: seconds(k.Frame), Value: q})
		}
	}
	if len(n.ScaleKeys) > 1 {
		base := math.Vec3FromArray(n.Scale)
		for _, k := range n.ScaleKeys {
			s := mulVec3(base, math.Vec3FromArray(k.Scale))
			ns.scale = append(ns.scale, anim.Keyframe[math.Vec3]{Time: seconds(k.Frame), Value: s})
		}
	}
	if len(n.PosKeys) > 1 {
		for _, k := range n.PosKeys {
			p := math.Vec3FromArray(k.Position)
			ns.translation = append(ns.translation, anim.Keyframe[math.Vec3]{Time: seconds(k.Frame), Value: p})
		}
	}
}

func mulVec3(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// computeBounds measures the rest pose through a throwaway hierarchy. It
// reports false when the model has no vertices.
func (m *Model) computeBounds() bool {
	root := scene.NewNode("bounds")
	nodes := m.instantiate(root, false)

	first := true
	for i, ns := range m.nodes {
		if ns.mesh == nil {
			continue
		}
		world := nodes[i].WorldMatrix()
		for _, p := range ns.mesh.Primitives() {
			for _, v := range p.Vertices() {
				pos := world.TransformPoint(v.Position)
				if first {
					m.Bounds = Bounds{Min: pos, Max: pos}
					first = false
					continue
				}
				m.Bounds.extend(pos)
			}
		}
	}
	return !first
}

// instantiate builds the model hierarchy under parent and returns the
// created nodes indexed like the source nodes.
func (m *Model) instantiate(parent *scene.NodeBuilder, centered bool) []*scene.NodeBuilder {
	wrap := math.IdentityTransform()
	if m.opts.FlipY {
		wrap.Scale.Y = -1
	}
	if centered {
		c := m.Bounds.Center()
		wrap.Translation = math.Vec3{X: -c.X, Z: -c.Z}
	}
	wrapper := parent.CreateNode(m.Name).SetLocalTransform(wrap)

	out := make([]*scene.NodeBuilder, len(m.nodes))
	var build func(p *scene.NodeBuilder, i int)
	build = func(p *scene.NodeBuilder, i int) {
		ns := &m.nodes[i]
		nb := p.CreateNode(ns.name).SetLocalTransform(ns.rest)
		for _, k := range ns.rotation {
			nb.Rotation().Track(AnimationName).SetPoint(k.Time, k.Value)
		}
		for _, k := range ns.scale {
			nb.Scale().Track(AnimationName).SetPoint(k.Time, k.Value)
		}
		for _, k := range ns.translation {
			nb.Translation().Track(AnimationName).SetPoint(k.Time, k.Value)
		}
		out[i] = nb
		for _, c := range ns.children {
			build(nb, c)
		}
	}
	for _, r := range m.roots {
		build(wrapper, r)
	}
	return out
}

// Meshes returns the model's meshes in node order.
func (m *Model) Meshes() []*mesh.Builder {
	var out []*mesh.Builder
	for _, ns := range m.nodes {
		if ns.mesh != nil {
			out = append(out, ns.mesh)
		}
	}
	return out
}

// Place adds one copy of the model to sc under a new root node called name
// with the local transform at. The model is centered on its XZ bounds
// below that root. Every geometry node becomes a rigid instance.
func (m *Model) Place(sc *scene.Builder, name string, at math.Transform) *scene.NodeBuilder {
	root := scene.NewNode(name).SetLocalTransform(at)
	nodes := m.instantiate(root, true)
	for i, ns := range m.nodes {
		if ns.mesh != nil {
			sc.AddRigidMesh(ns.mesh, nodes[i])
		}
	}
	return root
}
