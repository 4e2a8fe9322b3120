package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
)

// Camera parameters are stored as a blob of little-endian doubles, matching
// the layout of the binary model format.
func encodeParams(params []float64) []byte {
	if len(params) == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, params)
	return buf.Bytes()
}

func decodeParams(blob []byte) ([]float64, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("camera params blob has %d bytes, not a multiple of 8", len(blob))
	}
	params := make([]float64, len(blob)/8)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, params); err != nil {
		return nil, err
	}
	return params, nil
}

// AddCamera inserts a calibration and returns its identifier.
func (d *DB) AddCamera(ctx context.Context, modelID int, width, height uint64, params []float64, priorFocal bool) (int64, error) {
	prior := 0
	if priorFocal {
		prior = 1
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO cameras (model, width, height, params, prior_focal_length) VALUES (?, ?, ?, ?, ?)`,
		modelID, width, height, encodeParams(params), prior)
	if err != nil {
		return 0, fmt.Errorf("insert camera: %w", err)
	}
	return res.LastInsertId()
}

// CameraParams returns the stored parameter vector of a camera.
func (d *DB) CameraParams(ctx context.Context, cameraID int64) ([]float64, error) {
	var blob []byte
	row := d.db.QueryRowContext(ctx, `SELECT params FROM cameras WHERE camera_id = ?`, cameraID)
	if err := row.Scan(&blob); err != nil {
		return nil, fmt.Errorf("read camera %d: %w", cameraID, err)
	}
	return decodeParams(blob)
}

// AddImage inserts an image referencing an existing camera and returns its
// identifier.
func (d *DB) AddImage(ctx context.Context, name string, cameraID int64) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO images (name, camera_id) VALUES (?, ?)`, name, cameraID)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return res.LastInsertId()
}

// ImageIDByName resolves an image name. It returns false when the name is
// not in the database.
func (d *DB) ImageIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	row := d.db.QueryRowContext(ctx, `SELECT image_id FROM images WHERE name = ?`, name)
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("look up image %q: %w", name, err)
	}
	return id, true, nil
}

// NumCameras counts the stored calibrations.
func (d *DB) NumCameras(ctx context.Context) (int64, error) {
	return d.count(ctx, "cameras")
}

// NumImages counts the stored images.
func (d *DB) NumImages(ctx context.Context) (int64, error) {
	return d.count(ctx, "images")
}

// NumMatchedPairs counts the image pairs with raw matches.
func (d *DB) NumMatchedPairs(ctx context.Context) (int64, error) {
	return d.count(ctx, "matches")
}

// NumVerifiedPairs counts the image pairs with verified two-view geometry.
func (d *DB) NumVerifiedPairs(ctx context.Context) (int64, error) {
	return d.count(ctx, "two_view_geometries")
}

func (d *DB) count(ctx context.Context, table string) (int64, error) {
	var n int64
	row := d.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
