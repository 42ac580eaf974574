package instancing

import (
	"errors"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/scatter"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// ErrNoPrototypes is returned by NewManager without any LOD prototype.
var ErrNoPrototypes = errors.New("instancing: no prototypes")

// ScoreFunc picks the LOD level of a patch. 0 is the coarsest level.
type ScoreFunc func(p *Patch, viewer vmath.Vec3) int

// DistanceLOD scores by distance to the viewer. A patch closer than k of the
// thresholds gets level k.
func DistanceLOD(thresholds ...float32) ScoreFunc {
	return func(p *Patch, viewer vmath.Vec3) int {
		d := p.Position().Distance(viewer)
		level := 0
		for _, t := range thresholds {
			if d < t {
				level++
			}
		}
		return level
	}
}

type rebuild struct {
	patch *Patch
	level int
}

// Manager tracks the LOD of a set of patches and rebuilds them under a
// per-update budget.
type Manager struct {
	prototypes []Prototype
	score      ScoreFunc
	cadence    int

	levels map[*Patch]int
	order  []*Patch
	queue  []rebuild
	viewer vmath.Vec3

	log *zap.Logger
}

// NewManager returns a manager over prototypes indexed by LOD level. A nil
// score keeps every patch at level 0.
func NewManager(prototypes []Prototype, score ScoreFunc) (*Manager, error) {
	if len(prototypes) == 0 {
		return nil, ErrNoPrototypes
	}
	if score == nil {
		score = func(*Patch, vmath.Vec3) int { return 0 }
	}
	return &Manager{
		prototypes: prototypes,
		score:      score,
		cadence:    1,
		levels:     make(map[*Patch]int),
		log:        logger.Named("lod").With(zap.String("prototype", prototypes[0].Name)),
	}, nil
}

// SetCadence sets how many rebuilds one Update may run. Values below one are
// raised to one.
func (m *Manager) SetCadence(n int) {
	m.cadence = max(n, 1)
}

func (m *Manager) levelFor(p *Patch, viewer vmath.Vec3) int {
	return min(max(m.score(p, viewer), 0), len(m.prototypes)-1)
}

// AddPatch registers p at its current score and materializes it at once.
func (m *Manager) AddPatch(p *Patch) error {
	if _, ok := m.levels[p]; ok {
		return nil
	}
	level := m.levelFor(p, m.viewer)
	m.levels[p] = level
	m.order = append(m.order, p)
	return p.CreateInstances(m.prototypes[level])
}

// AddPatches registers several patches, stopping at the first error.
func (m *Manager) AddPatches(patches ...*Patch) error {
	for _, p := range patches {
		if err := m.AddPatch(p); err != nil {
			return err
		}
	}
	return nil
}

// RemovePatch forgets p and drops its queued rebuilds. It does not dispose p.
func (m *Manager) RemovePatch(p *Patch) {
	if _, ok := m.levels[p]; !ok {
		return
	}
	delete(m.levels, p)
	for i, q := range m.order {
		if q == p {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	kept := m.queue[:0]
	for _, r := range m.queue {
		if r.patch != p {
			kept = append(kept, r)
		}
	}
	m.queue = kept
}

// InitInstances rescores every patch against viewer and materializes it
// immediately, clearing the queue.
func (m *Manager) InitInstances(viewer vmath.Vec3) error {
	m.viewer = viewer
	m.queue = m.queue[:0]
	var errs []error
	for _, p := range m.order {
		level := m.levelFor(p, viewer)
		m.levels[p] = level
		if err := p.CreateInstances(m.prototypes[level]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Update rescores every patch, queues changed levels, and runs at most
// cadence queued rebuilds. It returns the number of rebuilds run.
func (m *Manager) Update(viewer vmath.Vec3) int {
	m.viewer = viewer
	if len(m.prototypes) > 1 {
		for _, p := range m.order {
			level := m.levelFor(p, viewer)
			if level == m.levels[p] {
				continue
			}
			m.queue = append(m.queue, rebuild{patch: p, level: level})
			m.levels[p] = level
		}
	}

	done := 0
	for i := 0; i < m.cadence && len(m.queue) > 0; i++ {
		r := m.queue[0]
		m.queue = m.queue[1:]
		if err := r.patch.CreateInstances(m.prototypes[r.level]); err != nil {
			m.log.Warn("lod rebuild failed", zap.Int("level", r.level), zap.Error(err))
			continue
		}
		done++
	}
	return done
}

// Prototypes returns the prototypes by LOD level.
func (m *Manager) Prototypes() []Prototype { return m.prototypes }

// Pending returns the number of queued rebuilds.
func (m *Manager) Pending() int { return len(m.queue) }

// Len returns the number of managed patches.
func (m *Manager) Len() int { return len(m.order) }

// Level returns the tracked level of p.
func (m *Manager) Level(p *Patch) (int, bool) {
	l, ok := m.levels[p]
	return l, ok
}

// InstanceCount sums the drawn instances of every patch.
func (m *Manager) InstanceCount() int {
	n := 0
	for _, p := range m.order {
		n += p.InstanceCount()
	}
	return n
}

// VertexCount sums prototype vertices over every drawn instance.
func (m *Manager) VertexCount() int {
	n := 0
	for _, p := range m.order {
		if proto, ok := p.Prototype(); ok {
			n += proto.VertexCount * p.InstanceCount()
		}
	}
	return n
}

// Dispose disposes and forgets every patch.
func (m *Manager) Dispose() error {
	var errs []error
	for _, p := range m.order {
		if err := p.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	m.order = nil
	m.queue = nil
	clear(m.levels)
	return errors.Join(errs...)
}

// CirclePatches builds square scatter patches on a patchSize lattice, keeping
// cells with x^2+z^2 < radius^2.
func CirclePatches(r render.Renderer, radius int, patchSize float32, resolution int, rng *rand.Rand) []*Patch {
	var patches []*Patch
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			if x*x+z*z >= radius*radius {
				continue
			}
			pos := vmath.Vec3{X: float32(x) * patchSize, Z: float32(z) * patchSize}
			patches = append(patches, NewPatch(r, pos, scatter.Square(pos, patchSize, resolution, rng)))
		}
	}
	return patches
}
