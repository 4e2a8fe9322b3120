// Package compute describes the accelerator backends a build or host can
// offer to stage engines.
//
// Capabilities travel as an explicit value: callers decide what to claim
// (typically via Detect at process start) and hand the descriptor to the
// execution engine at construction. Stage code never consults globals or
// build tags to learn what is available.
package compute

import (
	"os"
	"os/exec"
	"strings"
)

// Capabilities reports which accelerator backends are usable.
type Capabilities struct {
	// CUDA indicates an NVIDIA compute runtime. Patch-match stereo requires
	// it; GPU extraction and matching prefer it over a GL context.
	CUDA bool
	// OpenGL indicates a context-capable GL runtime, used for GPU extraction
	// and matching when CUDA is absent.
	OpenGL bool
}

// Detect probes the host for accelerator backends. The probes are
// conservative: absence of evidence reports the backend unavailable.
func Detect() Capabilities {
	return Capabilities{
		CUDA:   detectCUDA(),
		OpenGL: detectOpenGL(),
	}
}

func detectCUDA() bool {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	return false
}

func detectOpenGL() bool {
	for _, candidate := range []string{
		"/usr/lib/x86_64-linux-gnu/libGL.so.1",
		"/usr/lib64/libGL.so.1",
		"/usr/lib/libGL.so.1",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	if _, err := exec.LookPath("glxinfo"); err == nil {
		return true
	}
	return false
}

// String renders the descriptor for logs and diagnostics.
func (c Capabilities) String() string {
	var backends []string
	if c.CUDA {
		backends = append(backends, "cuda")
	}
	if c.OpenGL {
		backends = append(backends, "opengl")
	}
	if len(backends) == 0 {
		return "cpu-only"
	}
	return strings.Join(backends, "+")
}
