package compute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

func chunkRequest(density float32, max int) Request {
	origin := vmath.Vec3{X: 20, Z: -40}
	return Request{
		Grid:    terrain.Grid{Resolution: 16, Size: 20},
		Surface: terrain.FlatSurface{Field: terrain.Waves{Amplitude: 1, Frequency: 0.2}, Position: origin},
		Scatter: ScatterParams{
			Options: scatter.Options{Density: density, MaxInstances: max, Origin: origin},
			Seed:    99,
		},
	}
}

func wait[T any](t *testing.T, f *Future[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	return v
}

func TestBackendsAgreeOnShape(t *testing.T) {
	req := chunkRequest(2, scatter.MaxInstances(400, 2))
	cpu := wait(t, CPU{}.Build(context.Background(), req))
	par := wait(t, NewParallel(4).Build(context.Background(), req))

	if len(cpu.Mesh.Positions) != len(par.Mesh.Positions) || len(cpu.Mesh.Indices) != len(par.Mesh.Indices) {
		t.Fatalf("mesh sizes differ")
	}
	for i := range cpu.Mesh.Positions {
		if cpu.Mesh.Positions[i] != par.Mesh.Positions[i] || cpu.Mesh.Normals[i] != par.Mesh.Normals[i] {
			t.Fatalf("vertex float %d differs", i)
		}
	}
	for i := range cpu.Mesh.Indices {
		if cpu.Mesh.Indices[i] != par.Mesh.Indices[i] {
			t.Fatalf("index %d differs: %d vs %d", i, cpu.Mesh.Indices[i], par.Mesh.Indices[i])
		}
	}
	if cpu.Vertical.Len() != par.Vertical.Len() || cpu.Aligned.Len() != par.Aligned.Len() {
		t.Errorf("instance counts differ: cpu %d, parallel %d", cpu.Vertical.Len(), par.Vertical.Len())
	}
	if cpu.Vertical.Len() == 0 {
		t.Error("no instances scattered")
	}
}

func TestParallelDeterministic(t *testing.T) {
	req := chunkRequest(1, 0)
	a := wait(t, NewParallel(3).Build(context.Background(), req))
	b := wait(t, NewParallel(7).Build(context.Background(), req))
	for i := range a.Aligned {
		if a.Aligned[i] != b.Aligned[i] {
			t.Fatalf("float %d differs between pool sizes", i)
		}
	}
}

func TestSeparateDispatch(t *testing.T) {
	req := chunkRequest(1, 0)
	p := NewParallel(2)
	mesh := wait(t, p.Tessellate(context.Background(), req.Grid, req.Surface))
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
	inst := wait(t, p.Scatter(context.Background(), mesh, req.Scatter))
	if inst.Vertical.Len() != inst.Aligned.Len() {
		t.Errorf("buffer lengths %d and %d", inst.Vertical.Len(), inst.Aligned.Len())
	}

	cpuMesh := wait(t, CPU{}.Tessellate(context.Background(), req.Grid, req.Surface))
	cpuInst := wait(t, CPU{}.Scatter(context.Background(), cpuMesh, req.Scatter))
	if cpuInst.Vertical.Len() != inst.Vertical.Len() {
		t.Errorf("cpu scattered %d, parallel %d", cpuInst.Vertical.Len(), inst.Vertical.Len())
	}
}

func TestCapacityFailure(t *testing.T) {
	req := chunkRequest(5, 10)
	for _, b := range []Backend{CPU{}, NewParallel(2)} {
		_, err := b.Build(context.Background(), req).Wait(context.Background())
		if !errors.Is(err, scatter.ErrCapacity) {
			t.Errorf("%s: got %v, want ErrCapacity", b.Name(), err)
		}
	}
}

func TestCapacityReachedExactly(t *testing.T) {
	ctx := context.Background()
	res, err := CPU{}.Build(ctx, chunkRequest(2, 0)).Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n := res.Vertical.Len()

	for _, b := range []Backend{CPU{}, NewParallel(2)} {
		if _, err := b.Build(ctx, chunkRequest(2, n)).Wait(ctx); !errors.Is(err, scatter.ErrCapacity) {
			t.Errorf("%s: capacity %d with %d instances: got %v, want ErrCapacity", b.Name(), n, n, err)
		}
		if _, err := b.Build(ctx, chunkRequest(2, n+1)).Wait(ctx); err != nil {
			t.Errorf("%s: capacity %d with %d instances: %v", b.Name(), n+1, n, err)
		}
	}
}

func TestMissingField(t *testing.T) {
	req := chunkRequest(1, 0)
	req.Surface = terrain.FlatSurface{}
	for _, b := range []Backend{CPU{}, NewParallel(2)} {
		_, err := b.Build(context.Background(), req).Wait(context.Background())
		if !errors.Is(err, terrain.ErrNoField) {
			t.Errorf("%s: got %v, want ErrNoField", b.Name(), err)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, b := range []Backend{CPU{}, NewParallel(2)} {
		_, err := b.Build(ctx, chunkRequest(1, 0)).Wait(context.Background())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%s: got %v, want context.Canceled", b.Name(), err)
		}
	}
}

func TestFuture(t *testing.T) {
	f := newFuture[int]()
	if f.Ready() {
		t.Fatal("new future is ready")
	}
	if _, err := f.Result(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Result() before resolve = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() on pending future = %v", err)
	}

	f.resolve(7, nil)
	if v, err := f.Result(); v != 7 || err != nil {
		t.Errorf("Result() = %v, %v", v, err)
	}

	g := Then(f, func(v int) (string, error) { return "ok", nil })
	if s := wait(t, g); s != "ok" {
		t.Errorf("Then() = %q", s)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	if b := New(Config{}); b.Name() != "cpu" {
		t.Errorf("New without acceleration = %s", b.Name())
	}
	if b := New(Config{Accelerate: true, Workers: 1}); b.Name() != "cpu" {
		t.Errorf("single worker should fall back to cpu, got %s", b.Name())
	}
	if b := New(Config{Accelerate: true, Workers: 4}); b.Name() != "parallel(4)" {
		t.Errorf("New with 4 workers = %s", b.Name())
	}
}
