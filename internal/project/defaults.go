package project

const (
	defaultCameraModel          = "SIMPLE_RADIAL"
	defaultUndistorterType      = "COLMAP"
	defaultDenseWorkspaceFormat = "COLMAP"
	defaultPMVSOptionName       = "option-all"
	defaultFusionInputType      = "geometric"
	defaultDelaunayInputType    = "dense"
)

// Default returns a Project populated with repository defaults. Values follow
// the conventional option set for incremental reconstruction pipelines;
// num_threads -1 and max_image_size -1 mean "engine decides".
func Default() Project {
	return Project{
		UndistorterOutputType: defaultUndistorterType,
		DenseWorkspaceFormat:  defaultDenseWorkspaceFormat,
		PMVSOptionName:        defaultPMVSOptionName,
		FusionInputType:       defaultFusionInputType,
		DelaunayInputType:     defaultDelaunayInputType,

		Extraction: Extraction{
			CameraModel:    defaultCameraModel,
			SingleCamera:   false,
			UseGPU:         true,
			GPUIndex:       "-1",
			MaxImageSize:   3200,
			MaxNumFeatures: 8192,
			NumThreads:     -1,
		},
		Matching: Matching{
			UseGPU:         true,
			GPUIndex:       "-1",
			MaxRatio:       0.8,
			MaxDistance:    0.7,
			CrossCheck:     true,
			BlockSize:      50,
			GuidedMatching: false,
			NumThreads:     -1,
		},
		Mapper: Mapper{
			MinNumMatches:          15,
			MultipleModels:         true,
			MaxNumModels:           50,
			MaxModelOverlap:        20,
			MinModelSize:           10,
			InitImageID1:           -1,
			InitImageID2:           -1,
			NumThreads:             -1,
			BARefineFocalLength:    true,
			BARefinePrincipalPoint: false,
			BARefineExtraParams:    true,
		},
		PatchMatch: PatchMatch{
			MaxImageSize:    -1,
			GPUIndex:        "-1",
			WindowRadius:    5,
			WindowStep:      1,
			NumSamples:      15,
			NumIterations:   5,
			GeomConsistency: true,
			Filter:          true,
			CacheSize:       32,
		},
		StereoFusion: StereoFusion{
			MinNumPixels:      5,
			MaxNumPixels:      10000,
			MaxTraversalDepth: 100,
			MaxReprojError:    2,
			MaxDepthError:     0.01,
			MaxNormalError:    10,
			CheckNumImages:    50,
			CacheSize:         32,
		},
		PoissonMeshing: PoissonMeshing{
			PointWeight: 1,
			Depth:       13,
			Color:       32,
			Trim:        10,
			NumThreads:  -1,
		},
		DelaunayMeshing: DelaunayMeshing{
			MaxProjDist:             20,
			MaxDepthDist:            0.05,
			VisibilitySigma:         3,
			DistanceSigmaFactor:     1,
			QualityRegularization:   1,
			MaxSideLengthFactor:     25,
			MaxSideLengthPercentile: 95,
			NumThreads:              -1,
		},
		Undistortion: Undistortion{
			BlankPixels:  0,
			MinScale:     0.2,
			MaxScale:     2,
			MaxImageSize: -1,
			ROIMinX:      0,
			ROIMinY:      0,
			ROIMaxX:      1,
			ROIMaxY:      1,
		},
	}
}
