package project

import (
	"errors"
	"fmt"
)

func (p *Project) validateGroup(group string) error {
	switch group {
	case GroupExtraction:
		return p.validateExtraction()
	case GroupMatching:
		return p.validateMatching()
	case GroupMapper:
		return p.validateMapper()
	case GroupPatchMatch:
		return p.validatePatchMatch()
	case GroupStereoFusion:
		return p.validateStereoFusion()
	case GroupPoissonMeshing:
		return p.validatePoissonMeshing()
	case GroupDelaunayMeshing:
		return p.validateDelaunayMeshing()
	case GroupUndistortion:
		return p.validateUndistortion()
	default:
		return fmt.Errorf("unknown option group %q", group)
	}
}

func (p *Project) validateExtraction() error {
	if err := ensurePositiveMap(map[string]int{
		"extraction.max_image_size":   p.Extraction.MaxImageSize,
		"extraction.max_num_features": p.Extraction.MaxNumFeatures,
	}); err != nil {
		return err
	}
	if p.Extraction.CameraModel == "" {
		return errors.New("extraction.camera_model must be set")
	}
	return nil
}

func (p *Project) validateMatching() error {
	if p.Matching.MaxRatio <= 0 || p.Matching.MaxRatio > 1 {
		return errors.New("matching.max_ratio must be in (0, 1]")
	}
	if p.Matching.MaxDistance <= 0 {
		return errors.New("matching.max_distance must be positive")
	}
	if p.Matching.BlockSize <= 1 {
		return errors.New("matching.block_size must be greater than 1")
	}
	return nil
}

func (p *Project) validateMapper() error {
	return ensurePositiveMap(map[string]int{
		"mapper.min_num_matches":   p.Mapper.MinNumMatches,
		"mapper.max_num_models":    p.Mapper.MaxNumModels,
		"mapper.max_model_overlap": p.Mapper.MaxModelOverlap,
		"mapper.min_model_size":    p.Mapper.MinModelSize,
	})
}

func (p *Project) validatePatchMatch() error {
	return ensurePositiveMap(map[string]int{
		"patch_match.window_radius":  p.PatchMatch.WindowRadius,
		"patch_match.window_step":    p.PatchMatch.WindowStep,
		"patch_match.num_samples":    p.PatchMatch.NumSamples,
		"patch_match.num_iterations": p.PatchMatch.NumIterations,
		"patch_match.cache_size":     p.PatchMatch.CacheSize,
	})
}

func (p *Project) validateStereoFusion() error {
	if err := ensurePositiveMap(map[string]int{
		"stereo_fusion.min_num_pixels":      p.StereoFusion.MinNumPixels,
		"stereo_fusion.max_traversal_depth": p.StereoFusion.MaxTraversalDepth,
		"stereo_fusion.check_num_images":    p.StereoFusion.CheckNumImages,
		"stereo_fusion.cache_size":          p.StereoFusion.CacheSize,
	}); err != nil {
		return err
	}
	if p.StereoFusion.MaxNumPixels < p.StereoFusion.MinNumPixels {
		return errors.New("stereo_fusion.max_num_pixels must be >= stereo_fusion.min_num_pixels")
	}
	if p.StereoFusion.MaxReprojError <= 0 {
		return errors.New("stereo_fusion.max_reproj_error must be positive")
	}
	if p.StereoFusion.MaxDepthError <= 0 {
		return errors.New("stereo_fusion.max_depth_error must be positive")
	}
	if p.StereoFusion.MaxNormalError <= 0 {
		return errors.New("stereo_fusion.max_normal_error must be positive")
	}
	return nil
}

func (p *Project) validatePoissonMeshing() error {
	if p.PoissonMeshing.Depth <= 0 {
		return errors.New("poisson_meshing.depth must be positive")
	}
	if p.PoissonMeshing.PointWeight < 0 {
		return errors.New("poisson_meshing.point_weight must be >= 0")
	}
	if p.PoissonMeshing.Trim < 0 {
		return errors.New("poisson_meshing.trim must be >= 0")
	}
	return nil
}

func (p *Project) validateDelaunayMeshing() error {
	if p.DelaunayMeshing.MaxProjDist <= 0 {
		return errors.New("delaunay_meshing.max_proj_dist must be positive")
	}
	if p.DelaunayMeshing.MaxDepthDist <= 0 {
		return errors.New("delaunay_meshing.max_depth_dist must be positive")
	}
	if p.DelaunayMeshing.VisibilitySigma <= 0 {
		return errors.New("delaunay_meshing.visibility_sigma must be positive")
	}
	if p.DelaunayMeshing.MaxSideLengthPercentile <= 0 || p.DelaunayMeshing.MaxSideLengthPercentile > 100 {
		return errors.New("delaunay_meshing.max_side_length_percentile must be in (0, 100]")
	}
	return nil
}

func (p *Project) validateUndistortion() error {
	u := p.Undistortion
	if u.BlankPixels < 0 || u.BlankPixels > 1 {
		return errors.New("undistortion.blank_pixels must be between 0 and 1")
	}
	if u.MinScale <= 0 {
		return errors.New("undistortion.min_scale must be positive")
	}
	if u.MaxScale < u.MinScale {
		return errors.New("undistortion.max_scale must be >= undistortion.min_scale")
	}
	if u.ROIMinX < 0 || u.ROIMinY < 0 || u.ROIMaxX > 1 || u.ROIMaxY > 1 {
		return errors.New("undistortion.roi_* values must be between 0 and 1")
	}
	if u.ROIMinX >= u.ROIMaxX || u.ROIMinY >= u.ROIMaxY {
		return errors.New("undistortion roi minimum must be smaller than roi maximum")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
