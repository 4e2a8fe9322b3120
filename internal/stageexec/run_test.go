package stageexec_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/farent12/colmap/internal/compute"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/stageexec"
)

func TestRunDirect(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{}, nil)
	var ran bool
	err := engine.Run(context.Background(), "mapper", stageexec.WorkerFunc(func(ctx context.Context) error {
		ran = true
		return nil
	}), stageexec.PolicyDirect)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !ran {
		t.Fatal("expected worker to run")
	}
}

func TestRunReturnsWorkerError(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{}, nil)
	boom := errors.New("solver diverged")
	err := engine.Run(context.Background(), "poisson_meshing", stageexec.WorkerFunc(func(ctx context.Context) error {
		return boom
	}), stageexec.PolicyDirect)
	if !errors.Is(err, boom) {
		t.Fatalf("expected worker error to surface, got %v", err)
	}
}

func TestRunNilWorker(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{CUDA: true, OpenGL: true}, nil)
	err := engine.Run(context.Background(), "stereo_fusion", nil, stageexec.PolicyDirect)
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("expected backend-unavailable for nil worker, got %v", err)
	}
}

func TestRunContextAffineRequiresOpenGL(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{}, nil)
	err := engine.Run(context.Background(), "feature_extraction", stageexec.WorkerFunc(func(ctx context.Context) error {
		t.Fatal("worker must not run without an opengl runtime")
		return nil
	}), stageexec.PolicyContextAffine)
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("expected backend-unavailable, got %v", err)
	}
}

func TestRunContextAffineExecutes(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{OpenGL: true}, nil)
	var ran bool
	err := engine.Run(context.Background(), "feature_extraction", stageexec.WorkerFunc(func(ctx context.Context) error {
		ran = true
		return nil
	}), stageexec.PolicyContextAffine)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !ran {
		t.Fatal("expected worker to run")
	}
}

func TestContextAffineRunsSerialize(t *testing.T) {
	engine := stageexec.New(compute.Capabilities{OpenGL: true}, nil)

	var active, overlap int32
	worker := stageexec.WorkerFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&overlap, 1)
		}
		defer atomic.AddInt32(&active, -1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := engine.Run(context.Background(), "exhaustive_matching", worker, stageexec.PolicyContextAffine); err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&overlap) != 0 {
		t.Fatal("expected context-affine runs to be mutually exclusive")
	}
}

func TestResolveGPUPolicy(t *testing.T) {
	cases := []struct {
		name    string
		caps    compute.Capabilities
		useGPU  bool
		want    stageexec.Policy
		wantErr bool
	}{
		{"cpu requested", compute.Capabilities{}, false, stageexec.PolicyDirect, false},
		{"gpu with cuda", compute.Capabilities{CUDA: true}, true, stageexec.PolicyDirect, false},
		{"gpu with cuda and gl", compute.Capabilities{CUDA: true, OpenGL: true}, true, stageexec.PolicyDirect, false},
		{"gpu with gl only", compute.Capabilities{OpenGL: true}, true, stageexec.PolicyContextAffine, false},
		{"gpu with nothing", compute.Capabilities{}, true, stageexec.PolicyDirect, true},
	}
	for _, tc := range cases {
		engine := stageexec.New(tc.caps, nil)
		policy, err := engine.ResolveGPUPolicy(tc.useGPU)
		if tc.wantErr {
			if !errors.Is(err, fault.ErrBackendUnavailable) {
				t.Fatalf("%s: expected backend-unavailable, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if policy != tc.want {
			t.Fatalf("%s: policy = %s, want %s", tc.name, policy, tc.want)
		}
	}
}

func TestRequireCUDA(t *testing.T) {
	if err := stageexec.New(compute.Capabilities{CUDA: true}, nil).RequireCUDA("patch_match_stereo"); err != nil {
		t.Fatalf("unexpected error with cuda available: %v", err)
	}
	err := stageexec.New(compute.Capabilities{OpenGL: true}, nil).RequireCUDA("patch_match_stereo")
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("expected backend-unavailable without cuda, got %v", err)
	}
}
