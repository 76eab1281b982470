package importer

import (
	"fmt"
	gomath "math"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/encoding"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/scene"
)

// ModelDir is where world files reference models from.
const ModelDir = "data/model"

// ReadFunc reads a game file by path.
type ReadFunc func(path string) ([]byte, error)

type loadResult struct {
	model *Model
	err   error
}

// Loader imports models by name and caches the result, so every placement
// of a model shares one set of meshes. It is safe for concurrent use.
type Loader struct {
	read  ReadFunc
	opts  Options
	mu    sync.Mutex
	cache map[string]loadResult
}

// NewLoader returns a loader reading model files through read.
func NewLoader(read ReadFunc, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = logger.Named("importer")
	}
	return &Loader{read: read, opts: opts, cache: make(map[string]loadResult)}
}

// Load returns the model stored at ModelDir/name. Failures are cached too.
func (l *Loader) Load(name string) (*Model, error) {
	key := encoding.NormalizePath(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.cache[key]; ok {
		return r.model, r.err
	}

	m, err := l.load(name, key)
	l.cache[key] = loadResult{m, err}
	return m, err
}

func (l *Loader) load(name, key string) (*Model, error) {
	data, err := l.read(path.Join(ModelDir, key))
	if err != nil {
		return nil, err
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return Import(path.Base(key), rsm, l.opts)
}

// Len returns the number of cached models, failed ones included.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// WorldStats counts the outcome of a world import.
type WorldStats struct {
	Placed  int
	Skipped int
	Models  int
}

// PlacementTransform converts a world placement into a local transform:
// translation with Y negated, rotation Y then X then Z in degrees, then
// scale.
func PlacementTransform(p formats.Placement) math.Transform {
	rad := func(deg float32) float32 { return deg * gomath.Pi / 180 }
	rx := math.QuatFromAxisAngle(math.Vec3{X: 1}, rad(p.Rotation[0]))
	ry := math.QuatFromAxisAngle(math.Vec3{Y: 1}, rad(p.Rotation[1]))
	rz := math.QuatFromAxisAngle(math.Vec3{Z: 1}, rad(p.Rotation[2]))
	return math.Transform{
		Scale:       math.Vec3FromArray(p.Scale),
		Rotation:    ry.Mul(rx).Mul(rz),
		Translation: math.Vec3{X: p.Position[0], Y: -p.Position[1], Z: p.Position[2]},
	}
}

// World places every model of w into sc. Placements whose model cannot be
// loaded are logged and skipped.
func World(w *formats.RSW, l *Loader, sc *scene.Builder) WorldStats {
	log := l.opts.Logger
	var stats WorldStats
	used := make(map[*Model]bool)
	for i, p := range w.Placements {
		m, err := l.Load(p.ModelName)
		if err != nil {
			log.Warn("skipping placement",
				zap.Int("index", i), zap.String("model", p.ModelName), zap.Error(err))
			stats.Skipped++
			continue
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", m.Name, i)
		}
		m.Place(sc, name, PlacementTransform(p))
		used[m] = true
		stats.Placed++
	}
	stats.Models = len(used)
	return stats
}
