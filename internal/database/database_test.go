package database_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/farent12/colmap/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reconstruction.db")
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db
}

func TestCreateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconstruction.db")
	if err := database.Create(path); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := database.Create(path); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Open after Create failed: %v", err)
	}
	defer db.Close()

	n, err := db.NumImages(context.Background())
	if err != nil {
		t.Fatalf("NumImages failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh database reports %d images", n)
	}
}

func TestCameraAndImageRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	params := []float64{1000, 960, 540, -0.05}
	cameraID, err := db.AddCamera(ctx, 2, 1920, 1080, params, false)
	if err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	stored, err := db.CameraParams(ctx, cameraID)
	if err != nil {
		t.Fatalf("CameraParams failed: %v", err)
	}
	if !reflect.DeepEqual(stored, params) {
		t.Fatalf("stored params %v, want %v", stored, params)
	}

	imageID, err := db.AddImage(ctx, "frame_000.jpg", cameraID)
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	if imageID == 0 {
		t.Fatal("AddImage returned zero identifier")
	}

	got, ok, err := db.ImageIDByName(ctx, "frame_000.jpg")
	if err != nil || !ok || got != imageID {
		t.Fatalf("ImageIDByName = (%d, %v, %v), want (%d, true, nil)", got, ok, err, imageID)
	}
	if _, ok, err := db.ImageIDByName(ctx, "missing.jpg"); err != nil || ok {
		t.Fatalf("missing image lookup = (%v, %v)", ok, err)
	}

	cameras, err := db.NumCameras(ctx)
	if err != nil || cameras != 1 {
		t.Fatalf("NumCameras = (%d, %v)", cameras, err)
	}
	images, err := db.NumImages(ctx)
	if err != nil || images != 1 {
		t.Fatalf("NumImages = (%d, %v)", images, err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.AddImage(context.Background(), "orphan.jpg", 42); err == nil {
		t.Fatal("image referencing a missing camera should be rejected")
	}
}

func TestDuplicateImageNameRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cameraID, err := db.AddCamera(ctx, 0, 64, 48, []float64{50, 32, 24}, false)
	if err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	if _, err := db.AddImage(ctx, "frame.jpg", cameraID); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	if _, err := db.AddImage(ctx, "frame.jpg", cameraID); err == nil {
		t.Fatal("duplicate image name should be rejected")
	}
}

func TestPairIDEncoding(t *testing.T) {
	cases := []struct {
		id1, id2 int64
	}{
		{1, 2},
		{2, 1},
		{1, 1},
		{100, database.MaxNumImages - 1},
	}
	for _, tc := range cases {
		pairID := database.ImagePairToPairID(tc.id1, tc.id2)
		got1, got2 := database.PairIDToImagePair(pairID)
		want1, want2 := tc.id1, tc.id2
		if database.ShouldSwapImagePair(want1, want2) {
			want1, want2 = want2, want1
		}
		if got1 != want1 || got2 != want2 {
			t.Fatalf("pair (%d, %d) round-tripped to (%d, %d)", tc.id1, tc.id2, got1, got2)
		}
	}

	if database.ImagePairToPairID(1, 2) != database.ImagePairToPairID(2, 1) {
		t.Fatal("pair identifiers must be order independent")
	}
	if !database.ShouldSwapImagePair(5, 3) || database.ShouldSwapImagePair(3, 5) {
		t.Fatal("ShouldSwapImagePair ordering is wrong")
	}
}
