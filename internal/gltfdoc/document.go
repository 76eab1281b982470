// Package gltfdoc implements the compiler's destination document on top
// of github.com/qmuntal/gltf. Each mesh batch is packed into one
// interleaved vertex buffer view whose layout comes from the vertex
// attribute reflection.
package gltfdoc

import (
	"errors"
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/target"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

var (
	ErrForeignEntity = errors.New("entity belongs to another document")
	ErrSkinLength    = errors.New("joint and inverse bind matrix counts differ")
)

// Document is a glTF document under construction.
type Document struct {
	doc         *gltf.Document
	log         *zap.Logger
	doubleSided bool
	textureURI  func(material string) string

	meshes     []*Mesh
	materials  map[string]uint32
	animations map[string]*gltf.Animation
}

var _ target.Document = (*Document)(nil)

// Option configures a Document.
type Option func(*Document)

// WithGenerator sets asset.generator.
func WithGenerator(generator string) Option {
	return func(d *Document) { d.doc.Asset.Generator = generator }
}

// WithLogger sets the logger; the default is logger.Named("gltfdoc").
func WithLogger(l *zap.Logger) Option {
	return func(d *Document) { d.log = l }
}

// WithDoubleSided marks every material double sided.
func WithDoubleSided(on bool) Option {
	return func(d *Document) { d.doubleSided = on }
}

// WithTextureResolver maps a material name to the image URI used as its
// base color texture. An empty URI leaves the material untextured.
func WithTextureResolver(fn func(material string) string) Option {
	return func(d *Document) { d.textureURI = fn }
}

// New returns an empty document with one scene.
func New(opts ...Option) *Document {
	d := &Document{
		doc:        gltf.NewDocument(),
		log:        logger.Named("gltfdoc"),
		materials:  make(map[string]uint32),
		animations: make(map[string]*gltf.Animation),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Document returns the underlying glTF document.
func (d *Document) Document() *gltf.Document { return d.doc }

// Mesh is a compiled glTF mesh.
type Mesh struct {
	doc   *Document
	index uint32
	name  string
}

func (m *Mesh) Index() int   { return int(m.index) }
func (m *Mesh) Name() string { return m.name }

// CreateMeshes writes batch into the document. All meshes of a batch must
// share one vertex layout; their vertices go into a single buffer view.
func (d *Document) CreateMeshes(batch []*mesh.Builder) ([]target.Mesh, error) {
	var (
		shape   vertex.Material
		skinned bool
		key     vertex.Layout
	)
	for _, b := range batch {
		l, ok := b.Layout()
		if !ok {
			continue
		}
		if shape == nil {
			shape, skinned, key = b.Shape(), b.Skinned(), l
			continue
		}
		if l != key {
			return nil, fmt.Errorf("mesh %q: %w", b.Name(), vertex.ErrShapeMismatch)
		}
	}
	if shape == nil {
		shape = vertex.NewEmpty()
	}

	vl := vertexLayout(shape, skinned)
	var rows []sample
	for _, b := range batch {
		for _, p := range b.Primitives() {
			for _, v := range p.Vertices() {
				rows = append(rows, sample{position: v.Position, normal: v.Normal, material: v.Material, skin: v.Skin})
			}
		}
	}
	data, err := vl.pack(rows)
	if err != nil {
		return nil, err
	}
	var view uint32
	if len(rows) > 0 {
		view = d.writeView(data, vl.stride, gltf.TargetArrayBuffer)
	}
	d.log.Debug("vertex batch packed",
		zap.Int("meshes", len(batch)),
		zap.Int("vertices", len(rows)),
		zap.Int("stride", vl.stride),
		zap.Int("bytes", len(data)))

	out := make([]target.Mesh, 0, len(batch))
	base := 0
	for _, b := range batch {
		gm := &gltf.Mesh{Name: b.Name()}
		targets := b.MorphTargetCount()
		if targets > 0 {
			gm.Weights = make([]float32, targets)
		}
		for _, p := range b.Primitives() {
			prim, n, err := d.writePrimitive(p, vl, view, base, rows[base:base+p.VertexCount()], shape, targets)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", b.Name(), err)
			}
			base += n
			if prim != nil {
				gm.Primitives = append(gm.Primitives, prim)
			}
		}
		if len(gm.Primitives) == 0 {
			d.log.Warn("mesh has no triangles", zap.String("mesh", b.Name()))
		}
		d.doc.Meshes = append(d.doc.Meshes, gm)
		m := &Mesh{doc: d, index: uint32(len(d.doc.Meshes) - 1), name: b.Name()}
		d.meshes = append(d.meshes, m)
		out = append(out, m)
	}
	return out, nil
}

// writePrimitive adds accessors for one primitive whose vertices start at
// row base of the batch view. It returns the number of rows consumed.
func (d *Document) writePrimitive(p *mesh.Primitive, vl layout, view uint32, base int, rows []sample, shape vertex.Material, targets int) (*gltf.Primitive, int, error) {
	indices := p.Indices()
	if len(indices) == 0 {
		return nil, len(rows), nil
	}
	prim := &gltf.Primitive{Attributes: make(gltf.Attribute, len(vl.columns))}
	for _, c := range vl.columns {
		acc := &gltf.Accessor{
			BufferView:    gltf.Index(view),
			ByteOffset:    uint32(base*vl.stride + c.offset),
			ComponentType: c.format.Component,
			Normalized:    c.format.Normalized,
			Type:          c.format.Type,
			Count:         uint32(len(rows)),
		}
		if c.name == gltf.POSITION {
			acc.Min, acc.Max = bounds(rows)
		}
		prim.Attributes[c.name] = d.addAccessor(acc)
	}

	prim.Indices = gltf.Index(d.writeIndices(indices, len(rows)))

	if mat, ok := d.material(p.Material()); ok {
		prim.Material = gltf.Index(mat)
	}

	for k := 0; k < targets; k++ {
		attrs, err := d.writeMorphTarget(p, k, len(rows), shape)
		if err != nil {
			return nil, 0, err
		}
		prim.Targets = append(prim.Targets, attrs)
	}
	return prim, len(rows), nil
}

func (d *Document) writeIndices(indices []uint32, vertexCount int) uint32 {
	if vertexCount <= 0xFFFF {
		small := make([]uint16, len(indices))
		for i, v := range indices {
			small[i] = uint16(v)
		}
		return modeler.WriteIndices(d.doc, small)
	}
	return modeler.WriteIndices(d.doc, indices)
}

// writeMorphTarget packs target k of p into its own interleaved view.
// Primitives with fewer targets than their mesh get an all-zero target.
func (d *Document) writeMorphTarget(p *mesh.Primitive, k, count int, shape vertex.Material) (gltf.Attribute, error) {
	ml := morphLayout(shape)
	var mt *mesh.MorphTarget
	if all := p.MorphTargets(); k < len(all) {
		mt = all[k]
	}
	rows := make([]sample, count)
	for i := range rows {
		if mt == nil {
			rows[i] = sample{material: vertex.ZeroLike(shape)}
			continue
		}
		rows[i] = sample{position: mt.PositionDelta(i), normal: mt.NormalDelta(i), material: mt.MaterialDelta(i)}
	}
	data, err := ml.pack(rows)
	if err != nil {
		return nil, fmt.Errorf("morph target %d: %w", k, err)
	}
	view := d.writeView(data, ml.stride, gltf.TargetArrayBuffer)

	attrs := make(gltf.Attribute, len(ml.columns))
	for _, c := range ml.columns {
		acc := &gltf.Accessor{
			BufferView:    gltf.Index(view),
			ByteOffset:    uint32(c.offset),
			ComponentType: c.format.Component,
			Normalized:    c.format.Normalized,
			Type:          c.format.Type,
			Count:         uint32(count),
		}
		if c.name == gltf.POSITION {
			acc.Min, acc.Max = bounds(rows)
		}
		attrs[c.name] = d.addAccessor(acc)
	}
	return attrs, nil
}

func (d *Document) addAccessor(acc *gltf.Accessor) uint32 {
	d.doc.Accessors = append(d.doc.Accessors, acc)
	return uint32(len(d.doc.Accessors) - 1)
}

// writeView appends data to the last buffer, 4-byte aligned, and returns
// the new buffer view.
func (d *Document) writeView(data []byte, stride int, t gltf.Target) uint32 {
	if len(d.doc.Buffers) == 0 {
		d.doc.Buffers = append(d.doc.Buffers, new(gltf.Buffer))
	}
	bi := uint32(len(d.doc.Buffers) - 1)
	buf := d.doc.Buffers[bi]
	if pad := len(buf.Data) % 4; pad != 0 {
		buf.Data = append(buf.Data, make([]byte, 4-pad)...)
	}
	offset := len(buf.Data)
	buf.Data = append(buf.Data, data...)
	buf.ByteLength = uint32(len(buf.Data))

	d.doc.BufferViews = append(d.doc.BufferViews, &gltf.BufferView{
		Buffer:     bi,
		ByteOffset: uint32(offset),
		ByteLength: uint32(len(data)),
		ByteStride: uint32(stride),
		Target:     t,
	})
	return uint32(len(d.doc.BufferViews) - 1)
}

// material returns the index of the material called name, creating it on
// first use. The empty name means no material.
func (d *Document) material(name string) (uint32, bool) {
	if name == "" {
		return 0, false
	}
	if i, ok := d.materials[name]; ok {
		return i, true
	}
	metallic, roughness := float32(0), float32(1)
	m := &gltf.Material{
		Name:        name,
		DoubleSided: d.doubleSided,
		AlphaMode:   gltf.AlphaOpaque,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if d.textureURI != nil {
		if uri := d.textureURI(name); uri != "" {
			m.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: d.texture(uri)}
		}
	}
	d.doc.Materials = append(d.doc.Materials, m)
	i := uint32(len(d.doc.Materials) - 1)
	d.materials[name] = i
	return i, true
}

func (d *Document) texture(uri string) uint32 {
	for i, t := range d.doc.Textures {
		if t.Source != nil && d.doc.Images[*t.Source].URI == uri {
			return uint32(i)
		}
	}
	d.doc.Images = append(d.doc.Images, &gltf.Image{URI: uri})
	d.doc.Textures = append(d.doc.Textures, &gltf.Texture{Source: gltf.Index(uint32(len(d.doc.Images) - 1))})
	return uint32(len(d.doc.Textures) - 1)
}

// UseScene returns scene i, adding empty scenes up to i.
func (d *Document) UseScene(i int) target.Container {
	for len(d.doc.Scenes) <= i {
		d.doc.Scenes = append(d.doc.Scenes, &gltf.Scene{})
	}
	if d.doc.Scene == nil {
		d.doc.Scene = gltf.Index(uint32(i))
	}
	return &sceneContainer{doc: d, index: uint32(i)}
}

// Encode writes the document to w as .glb when binary is set, otherwise as
// .gltf JSON with embedded buffers.
func (d *Document) Encode(w io.Writer, binary bool) error {
	if !binary {
		d.embedBuffers()
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return enc.Encode(d.doc)
}

// Save writes the document to path.
func (d *Document) Save(path string, binary bool) error {
	if binary {
		return gltf.SaveBinary(d.doc, path)
	}
	d.embedBuffers()
	return gltf.Save(d.doc, path)
}

func (d *Document) embedBuffers() {
	for _, b := range d.doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
}
