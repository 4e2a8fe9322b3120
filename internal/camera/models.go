// Package camera defines the camera model catalog and parameter validation
// used when extraction options pin a model for all images.
package camera

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownModel marks a camera model name outside the catalog.
	ErrUnknownModel = errors.New("camera model does not exist")
	// ErrInvalidParams marks a parameter list that cannot be parsed or whose
	// arity does not match the model.
	ErrInvalidParams = errors.New("invalid camera parameters")
)

// Model describes one entry of the fixed camera model catalog. The index
// slices locate the focal length, principal point, and distortion values
// inside a parameter vector laid out for this model.
type Model struct {
	ID                 int
	Name               string
	NumParams          int
	FocalIdxs          []int
	PrincipalPointIdxs []int
	ExtraIdxs          []int
}

// The catalog is fixed; identifiers, arities, and parameter layouts are part
// of the reconstruction database and sparse model formats and must not change.
var catalog = []Model{
	{ID: 0, Name: "SIMPLE_PINHOLE", NumParams: 3,
		FocalIdxs: []int{0}, PrincipalPointIdxs: []int{1, 2}},
	{ID: 1, Name: "PINHOLE", NumParams: 4,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}},
	{ID: 2, Name: "SIMPLE_RADIAL", NumParams: 4,
		FocalIdxs: []int{0}, PrincipalPointIdxs: []int{1, 2}, ExtraIdxs: []int{3}},
	{ID: 3, Name: "RADIAL", NumParams: 5,
		FocalIdxs: []int{0}, PrincipalPointIdxs: []int{1, 2}, ExtraIdxs: []int{3, 4}},
	{ID: 4, Name: "OPENCV", NumParams: 8,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}, ExtraIdxs: []int{4, 5, 6, 7}},
	{ID: 5, Name: "OPENCV_FISHEYE", NumParams: 8,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}, ExtraIdxs: []int{4, 5, 6, 7}},
	{ID: 6, Name: "FULL_OPENCV", NumParams: 12,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}, ExtraIdxs: []int{4, 5, 6, 7, 8, 9, 10, 11}},
	{ID: 7, Name: "FOV", NumParams: 5,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}, ExtraIdxs: []int{4}},
	{ID: 8, Name: "SIMPLE_RADIAL_FISHEYE", NumParams: 4,
		FocalIdxs: []int{0}, PrincipalPointIdxs: []int{1, 2}, ExtraIdxs: []int{3}},
	{ID: 9, Name: "RADIAL_FISHEYE", NumParams: 5,
		FocalIdxs: []int{0}, PrincipalPointIdxs: []int{1, 2}, ExtraIdxs: []int{3, 4}},
	{ID: 10, Name: "THIN_PRISM_FISHEYE", NumParams: 12,
		FocalIdxs: []int{0, 1}, PrincipalPointIdxs: []int{2, 3}, ExtraIdxs: []int{4, 5, 6, 7, 8, 9, 10, 11}},
}

var byName = func() map[string]Model {
	m := make(map[string]Model, len(catalog))
	for _, model := range catalog {
		m[model.Name] = model
	}
	return m
}()

var byID = func() map[int]Model {
	m := make(map[int]Model, len(catalog))
	for _, model := range catalog {
		m[model.ID] = model
	}
	return m
}()

// Models returns the catalog ordered by identifier.
func Models() []Model {
	models := make([]Model, len(catalog))
	copy(models, catalog)
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// LookupModel finds a catalog entry by its exact name.
func LookupModel(name string) (Model, error) {
	model, ok := byName[name]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return model, nil
}

// LookupModelID finds a catalog entry by its numeric identifier.
func LookupModelID(id int) (Model, error) {
	model, ok := byID[id]
	if !ok {
		return Model{}, fmt.Errorf("%w: id %d", ErrUnknownModel, id)
	}
	return model, nil
}

// ParseParams parses a comma-separated parameter list. An empty or blank
// string parses to an empty list.
func ParseParams(csv string) ([]float64, error) {
	trimmed := strings.TrimSpace(csv)
	if trimmed == "" {
		return nil, nil
	}
	fields := strings.Split(trimmed, ",")
	params := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot parse %q", ErrInvalidParams, strings.TrimSpace(field))
		}
		params = append(params, value)
	}
	return params, nil
}

// VerifyParams checks a parameter list against the named model. An empty list
// is always valid; the engine estimates parameters in that case. A non-empty
// list must match the model's arity exactly; values are never truncated or
// padded.
func VerifyParams(modelName, csv string) error {
	model, err := LookupModel(modelName)
	if err != nil {
		return err
	}
	params, err := ParseParams(csv)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	if len(params) != model.NumParams {
		return fmt.Errorf("%w: %s expects %d values, got %d",
			ErrInvalidParams, model.Name, model.NumParams, len(params))
	}
	return nil
}
