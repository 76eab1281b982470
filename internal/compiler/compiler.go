// Package compiler turns a source scene into entities of a destination
// document in one pass. Meshes and armatures shared by several instances
// are compiled once; instances then bind them through a lookup.
package compiler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/scene"
	"github.com/Faultbox/meshforge/pkg/target"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

// ErrBatchSize is returned when the document answers a mesh batch with a
// different number of meshes.
var ErrBatchSize = errors.New("mesh batch size mismatch")

// Result summarizes one compilation.
type Result struct {
	Meshes    int
	Groups    int
	Armatures int
	Nodes     int
	Instances int
}

type options struct {
	scene int
	log   *zap.Logger
}

// Option configures Compile.
type Option func(*options)

// WithSceneIndex selects the document scene armature roots go into.
func WithSceneIndex(i int) Option {
	return func(o *options) { o.scene = i }
}

// WithLogger sets the logger; the default is logger.Named("compiler").
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

type compilation struct {
	doc    target.Document
	log    *zap.Logger
	meshes *identityMap[mesh.ID, target.Mesh]
	nodes  *identityMap[scene.NodeID, target.Node]
}

// Compile writes sc into doc. The scene must not change while Compile
// runs. An error aborts the call; entities already created stay in doc.
func Compile(sc *scene.Builder, doc target.Document, opts ...Option) (Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("compiler")
	}

	c := &compilation{
		doc:    doc,
		log:    o.log,
		meshes: newIdentityMap[mesh.ID, target.Mesh](),
		nodes:  newIdentityMap[scene.NodeID, target.Node](),
	}
	instances := sc.Instances()
	var res Result

	geometry, armatures := collect(instances)

	groups := groupByLayout(geometry)
	res.Groups = len(groups)
	for i, batch := range groups {
		if err := c.compileMeshes(batch); err != nil {
			return res, fmt.Errorf("mesh group %d: %w", i, err)
		}
	}
	res.Meshes = c.meshes.len()

	dst := doc.UseScene(o.scene)
	for _, root := range armatures {
		c.compileNode(dst, root)
	}
	res.Armatures = len(armatures)
	res.Nodes = c.nodes.len()
	c.log.Debug("armatures compiled", zap.Int("roots", res.Armatures), zap.Int("nodes", res.Nodes))

	l := lookup{meshes: c.meshes, nodes: c.nodes}
	for i, inst := range instances {
		if err := inst.Setup(dst, l); err != nil {
			return res, fmt.Errorf("instance %d: %w", i, err)
		}
		res.Instances++
	}

	c.log.Debug("scene compiled",
		zap.String("scene", sc.Name()),
		zap.Int("meshes", res.Meshes),
		zap.Int("groups", res.Groups),
		zap.Int("nodes", res.Nodes),
		zap.Int("instances", res.Instances))
	return res, nil
}

// collect returns the distinct meshes and armature roots referenced by
// instances, in first-seen order. Nil references are skipped.
func collect(instances []scene.Instance) ([]*mesh.Builder, []*scene.NodeBuilder) {
	var meshes []*mesh.Builder
	var roots []*scene.NodeBuilder
	seenMesh := make(map[mesh.ID]bool)
	seenRoot := make(map[scene.NodeID]bool)

	for _, inst := range instances {
		if m := inst.GeometryAsset(); m != nil && !seenMesh[m.ID()] {
			seenMesh[m.ID()] = true
			meshes = append(meshes, m)
		}
		if a := inst.ArmatureAsset(); a != nil {
			root := a.Root()
			if !seenRoot[root.ID()] {
				seenRoot[root.ID()] = true
				roots = append(roots, root)
			}
		}
	}
	return meshes, roots
}

// groupByLayout splits meshes into batches sharing a vertex layout. Groups
// and their members keep first-seen order. Meshes without vertices fall
// in the group of the empty layout.
func groupByLayout(meshes []*mesh.Builder) [][]*mesh.Builder {
	var keys []vertex.Layout
	groups := make(map[vertex.Layout][]*mesh.Builder)
	for _, m := range meshes {
		layout, _ := m.Layout()
		if _, ok := groups[layout]; !ok {
			keys = append(keys, layout)
		}
		groups[layout] = append(groups[layout], m)
	}

	out := make([][]*mesh.Builder, len(keys))
	for i, k := range keys {
		out[i] = groups[k]
	}
	return out
}

func (c *compilation) compileMeshes(batch []*mesh.Builder) error {
	compiled, err := c.doc.CreateMeshes(batch)
	if err != nil {
		return err
	}
	if len(compiled) != len(batch) {
		return fmt.Errorf("%w: sent %d, got %d", ErrBatchSize, len(batch), len(compiled))
	}
	for i, m := range batch {
		c.meshes.put(m.ID(), compiled[i])
	}
	layout, _ := batch[0].Layout()
	c.log.Debug("mesh group compiled", zap.String("layout", string(layout)), zap.Int("meshes", len(batch)))
	return nil
}

// compileNode creates src under parent, then its children in order.
// Animated nodes get their static transform first so channels without a
// track keep the static value.
func (c *compilation) compileNode(parent target.Container, src *scene.NodeBuilder) {
	if c.nodes.has(src.ID()) {
		return
	}
	dst := parent.CreateNode(src.Name())
	c.nodes.put(src.ID(), dst)

	if src.HasAnimations() {
		dst.SetLocalTransform(src.LocalTransform())
		for name, tr := range src.Scale().All() {
			dst.WithScaleAnimation(name, tr)
		}
		for name, tr := range src.Rotation().All() {
			dst.WithRotationAnimation(name, tr)
		}
		for name, tr := range src.Translation().All() {
			dst.WithTranslationAnimation(name, tr)
		}
	} else {
		dst.SetLocalMatrix(src.LocalMatrix())
	}

	for _, child := range src.Children() {
		c.compileNode(dst, child)
	}
}
