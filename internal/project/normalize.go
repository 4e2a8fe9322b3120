package project

import (
	"fmt"
	"strings"
)

func (p *Project) normalize() error {
	if err := p.normalizePathKeys(); err != nil {
		return err
	}
	p.normalizeTokens()
	p.Extraction.CameraModel = strings.TrimSpace(p.Extraction.CameraModel)
	p.Extraction.CameraParams = strings.TrimSpace(p.Extraction.CameraParams)
	p.Extraction.GPUIndex = strings.TrimSpace(p.Extraction.GPUIndex)
	p.Matching.GPUIndex = strings.TrimSpace(p.Matching.GPUIndex)
	p.PatchMatch.GPUIndex = strings.TrimSpace(p.PatchMatch.GPUIndex)
	return nil
}

func (p *Project) normalizePathKeys() error {
	paths := []struct {
		key   string
		value *string
	}{
		{KeyDatabasePath, &p.DatabasePath},
		{KeyImagePath, &p.ImagePath},
		{KeyFeaturesImageListPath, &p.FeaturesImageListPath},
		{KeyMatchesImageListPath, &p.MatchesImageListPath},
		{KeyMapperInputPath, &p.MapperInputPath},
		{KeyMapperOutputPath, &p.MapperOutputPath},
		{KeyMapperImageListPath, &p.MapperImageListPath},
		{KeyConverterInputPath, &p.ConverterInputPath},
		{KeyConverterOutputPath, &p.ConverterOutputPath},
		{KeyModelInputPath, &p.ModelInputPath},
		{KeyUndistorterOutputPath, &p.UndistorterOutputPath},
		{KeyDenseWorkspacePath, &p.DenseWorkspacePath},
		{KeyDenseOutputPath, &p.DenseOutputPath},
		{KeyPoissonInputPath, &p.PoissonInputPath},
		{KeyPoissonOutputPath, &p.PoissonOutputPath},
		{KeyDelaunayInputPath, &p.DelaunayInputPath},
		{KeyDelaunayOutputPath, &p.DelaunayOutputPath},
	}
	for _, entry := range paths {
		trimmed := strings.TrimSpace(*entry.value)
		if trimmed == "" {
			*entry.value = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
		*entry.value = expanded
	}
	return nil
}

// Token keys keep the caller's spelling; empty values fall back to defaults.
// Case folding happens in the per-stage registries.
func (p *Project) normalizeTokens() {
	p.ConverterOutputType = strings.TrimSpace(p.ConverterOutputType)

	p.UndistorterOutputType = strings.TrimSpace(p.UndistorterOutputType)
	if p.UndistorterOutputType == "" {
		p.UndistorterOutputType = defaultUndistorterType
	}

	p.DenseWorkspaceFormat = strings.TrimSpace(p.DenseWorkspaceFormat)
	if p.DenseWorkspaceFormat == "" {
		p.DenseWorkspaceFormat = defaultDenseWorkspaceFormat
	}

	p.PMVSOptionName = strings.TrimSpace(p.PMVSOptionName)
	if p.PMVSOptionName == "" {
		p.PMVSOptionName = defaultPMVSOptionName
	}

	p.FusionInputType = strings.TrimSpace(p.FusionInputType)
	if p.FusionInputType == "" {
		p.FusionInputType = defaultFusionInputType
	}

	p.DelaunayInputType = strings.TrimSpace(p.DelaunayInputType)
	if p.DelaunayInputType == "" {
		p.DelaunayInputType = defaultDelaunayInputType
	}
}
