// Package convert runs whole conversions: it resolves game files, imports
// models into a scene, compiles the scene into a glTF document and saves
// it where the config says.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/assets"
	"github.com/Faultbox/meshforge/internal/compiler"
	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/gltfdoc"
	"github.com/Faultbox/meshforge/internal/importer"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/manifest"
	"github.com/Faultbox/meshforge/pkg/encoding"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/scene"
)

// Errors returned by the pipeline.
var (
	ErrEmptyScene  = errors.New("nothing to convert")
	ErrUnknownKind = errors.New("unknown input kind")
)

// Report describes one written document.
type Report struct {
	Output string
	World  importer.WorldStats
	Result compiler.Result
}

// Pipeline converts files using one config and one set of data sources.
type Pipeline struct {
	cfg    *config.Config
	read   importer.ReadFunc
	loader *importer.Loader
	assets *assets.Manager
	log    *zap.Logger
}

// New opens the configured data sources. Missing sources are logged and
// skipped so a conversion can run from loose files alone.
func New(cfg *config.Config) *Pipeline {
	log := logger.Named("convert")
	m := assets.NewManager()
	for _, dir := range cfg.Data.Dirs {
		if err := m.AddDir(dir); err != nil {
			log.Warn("data dir skipped", zap.Error(err))
		}
	}
	for _, p := range cfg.Data.GRFPaths {
		if err := m.AddArchive(p); err != nil {
			log.Warn("archive skipped", zap.Error(err))
		}
	}
	p := NewWithReader(cfg, m.Load)
	p.assets = m
	return p
}

// NewWithReader returns a pipeline reading game files through read.
func NewWithReader(cfg *config.Config, read importer.ReadFunc) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		read:   read,
		loader: importer.NewLoader(read, ImportOptions(cfg)),
		log:    logger.Named("convert"),
	}
}

// ImportOptions maps the import section of cfg.
func ImportOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		TimeScale:     cfg.Import.TimeScale,
		FlipY:         cfg.Import.FlipY,
		ForceTwoSided: cfg.Import.ForceTwoSided,
		SmoothNormals: cfg.Import.SmoothNormals,
		Logger:        logger.Named("importer"),
	}
}

// Close releases the data sources opened by New.
func (p *Pipeline) Close() error {
	if p.assets == nil {
		return nil
	}
	return p.assets.Close()
}

// Convert picks Model, World or Manifest from the extension of name.
func (p *Pipeline) Convert(name string) (Report, error) {
	switch strings.ToLower(path.Ext(encoding.NormalizePath(name))) {
	case ".rsm", ".rsm2":
		return p.Model(name)
	case ".rsw":
		return p.World(name)
	case ".yaml", ".yml":
		return p.Manifest(name)
	}
	return Report{}, fmt.Errorf("%s: %w", name, ErrUnknownKind)
}

// ReadFile reads an input file the way the conversions do: from disk
// first, then from game data. Models resolve under the model directory.
func (p *Pipeline) ReadFile(name string) ([]byte, error) {
	dir := "data"
	if strings.HasPrefix(strings.ToLower(path.Ext(encoding.NormalizePath(name))), ".rsm") {
		dir = importer.ModelDir
	}
	return p.readInput(name, dir)
}

// readInput reads name from disk when it exists there, otherwise from the
// game data under dir.
func (p *Pipeline) readInput(name, dir string) ([]byte, error) {
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	}
	return p.read(path.Join(dir, encoding.NormalizePath(name)))
}

// Model converts one RSM model, placed once at the origin.
func (p *Pipeline) Model(name string) (Report, error) {
	data, err := p.readInput(name, importer.ModelDir)
	if err != nil {
		return Report{}, err
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return Report{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	base := baseName(name)
	m, err := importer.Import(base, rsm, ImportOptions(p.cfg))
	if err != nil {
		return Report{}, err
	}

	sc := scene.New(base)
	m.Place(sc, base, math.IdentityTransform())
	return p.write(sc, base, importer.WorldStats{Placed: 1, Models: 1})
}

// World converts every model placed by an RSW world file.
func (p *Pipeline) World(name string) (Report, error) {
	data, err := p.readInput(name, "data")
	if err != nil {
		return Report{}, err
	}
	w, err := formats.ParseRSW(data)
	if err != nil {
		return Report{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	return p.place(w, baseName(name))
}

// Manifest converts the scene a manifest file describes.
func (p *Pipeline) Manifest(file string) (Report, error) {
	m, err := manifest.Load(file)
	if err != nil {
		return Report{}, err
	}
	return p.place(m.World(), m.Output)
}

func (p *Pipeline) place(w *formats.RSW, name string) (Report, error) {
	sc := scene.New(name)
	stats := importer.World(w, p.loader, sc)
	p.log.Info("world placed",
		zap.String("scene", name),
		zap.Int("placed", stats.Placed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("models", stats.Models))
	if stats.Placed == 0 {
		return Report{World: stats}, fmt.Errorf("%s: %w", name, ErrEmptyScene)
	}
	return p.write(sc, name, stats)
}

func (p *Pipeline) write(sc *scene.Builder, name string, stats importer.WorldStats) (Report, error) {
	doc := gltfdoc.New(
		gltfdoc.WithGenerator(p.cfg.Output.Generator),
		gltfdoc.WithDoubleSided(p.cfg.Output.DoubleSided),
		gltfdoc.WithTextureResolver(p.textureURI),
	)
	res, err := compiler.Compile(sc, doc)
	if err != nil {
		return Report{World: stats}, fmt.Errorf("compiling %s: %w", name, err)
	}

	out := filepath.Join(p.cfg.Output.Dir, filepath.FromSlash(name)+p.cfg.Ext())
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Report{World: stats, Result: res}, err
	}
	if err := doc.Save(out, p.cfg.Binary()); err != nil {
		return Report{World: stats, Result: res}, fmt.Errorf("saving %s: %w", out, err)
	}
	p.log.Info("document written",
		zap.String("path", out),
		zap.Int("meshes", res.Meshes),
		zap.Int("nodes", res.Nodes),
		zap.Int("instances", res.Instances))
	return Report{Output: out, World: stats, Result: res}, nil
}

// textureURI maps a texture name to its image URI under the texture dir.
func (p *Pipeline) textureURI(material string) string {
	if material == "" {
		return ""
	}
	return path.Join(p.cfg.Output.TextureDir, encoding.NormalizePath(material))
}

func baseName(name string) string {
	base := path.Base(encoding.NormalizePath(name))
	return strings.TrimSuffix(base, path.Ext(base))
}
