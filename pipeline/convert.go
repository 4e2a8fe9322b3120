package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/format"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/sparse"
)

// exporter writes a loaded model in one output format. Directory formats
// (bin, txt) treat output as a directory; the rest derive file paths from it.
type exporter func(rec *sparse.Reconstruction, output string) error

var modelExporters = func() *format.Registry[exporter] {
	r := format.NewRegistry[exporter]("model format")
	r.Register("bin", func(rec *sparse.Reconstruction, output string) error {
		if err := fsutil.EnsureDir(output); err != nil {
			return err
		}
		return rec.WriteBinary(output)
	})
	r.Register("txt", func(rec *sparse.Reconstruction, output string) error {
		if err := fsutil.EnsureDir(output); err != nil {
			return err
		}
		return rec.WriteText(output)
	})
	r.Register("nvm", func(rec *sparse.Reconstruction, output string) error {
		return rec.ExportNVM(output)
	})
	r.Register("bundler", func(rec *sparse.Reconstruction, output string) error {
		return rec.ExportBundler(output+".bundle.out", output+".list.txt")
	})
	r.Register("ply", func(rec *sparse.Reconstruction, output string) error {
		return rec.ExportPLY(output)
	})
	r.Register("vrml", func(rec *sparse.Reconstruction, output string) error {
		stem := fsutil.TrimExt(output)
		return rec.ExportVRML(stem+".images.wrl", stem+".points3D.wrl")
	})
	return r
}()

// ModelFormatTokens lists the accepted converter output types.
func ModelFormatTokens() []string {
	return modelExporters.Tokens()
}

// ConvertModel loads the sparse model at converter_input_path (binary or
// text, auto-detected) and writes it as converter_output_type. Formats bin
// and txt treat converter_output_path as a directory; nvm, bundler, ply and
// vrml derive output file names from it.
func (r *Runner) ConvertModel(ctx context.Context, projectPath string) error {
	const stage = StageModelConversion
	req := project.Requirements{
		Required: []string{
			project.KeyConverterInputPath,
			project.KeyConverterOutputPath,
			project.KeyConverterOutputType,
		},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		export, err := modelExporters.Resolve(proj.ConverterOutputType)
		if err != nil {
			return err
		}

		rec, err := sparse.Read(proj.ConverterInputPath)
		if err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "read model", "", err)
		}
		logger.Info("model loaded",
			logging.String("input", proj.ConverterInputPath),
			logging.String("shape", rec.Summary()))

		outputType := strings.ToLower(strings.TrimSpace(proj.ConverterOutputType))
		if err := export(rec, proj.ConverterOutputPath); err != nil {
			return engineErr(stage, "write "+outputType, err)
		}
		logger.Info("model converted",
			logging.String("format", outputType),
			logging.String("output", proj.ConverterOutputPath))
		return nil
	})
}
