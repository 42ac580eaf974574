package world

import (
	"github.com/Faultbox/verdant/internal/compute"
)

type deps struct {
	backend  compute.Backend
	collider Collider
}

// Option configures a Terrain or Planet.
type Option func(*deps)

// WithBackend sets the compute backend. The default is compute.CPU.
func WithBackend(b compute.Backend) Option {
	return func(d *deps) { d.backend = b }
}

// WithCollider sets the collision collaborator. The default ignores shapes.
func WithCollider(c Collider) Option {
	return func(d *deps) { d.collider = c }
}

func resolveDeps(opts []Option) deps {
	d := deps{backend: compute.CPU{}, collider: NopCollider{}}
	for _, o := range opts {
		o(&d)
	}
	if d.backend == nil {
		d.backend = compute.CPU{}
	}
	if d.collider == nil {
		d.collider = NopCollider{}
	}
	return d
}

// chunkSeed mixes a world seed with a chunk key so every chunk regenerates
// identically.
func chunkSeed(seed uint64, a, b int) uint64 {
	h := seed ^ 0x9e3779b97f4a7c15
	h ^= uint64(int64(a)) * 0xbf58476d1ce4e5b9
	h = (h ^ (h >> 31)) * 0x94d049bb133111eb
	h ^= uint64(int64(b)) * 0xff51afd7ed558ccd
	return h ^ (h >> 29)
}
