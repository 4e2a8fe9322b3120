package main

import (
	"sync"

	"github.com/farent12/colmap/internal/compute"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/pipeline"
)

// commandContext carries the shared flag targets and builds the runner once,
// on first use, so flag values are final by then.
type commandContext struct {
	logLevelFlag  *string
	logFormatFlag *string

	runnerOnce sync.Once
	runner     *pipeline.Runner
	runnerErr  error
}

func newCommandContext(logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureRunner() (*pipeline.Runner, error) {
	c.runnerOnce.Do(func() {
		logger, err := logging.New(logging.Options{
			Level:  *c.logLevelFlag,
			Format: *c.logFormatFlag,
		})
		if err != nil {
			c.runnerErr = err
			return
		}
		c.runner = pipeline.New(
			pipeline.WithLogger(logger),
			pipeline.WithCapabilities(compute.Detect()),
			pipeline.WithEngines(defaultEngines()),
		)
	})
	return c.runner, c.runnerErr
}

// defaultEngines returns the stage engine factories bundled into this build.
// The base build ships only the data-plumbing stages; numeric engine packages
// replace this hook from their own build-tagged file when compiled in.
var defaultEngines = func() pipeline.EngineSet {
	return pipeline.EngineSet{}
}
