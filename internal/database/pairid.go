package database

// MaxNumImages bounds image identifiers so an ordered image pair packs into
// a single INTEGER column.
const MaxNumImages = 2147483647

// ShouldSwapImagePair reports whether the pair must be reordered before
// encoding. Pair identifiers are always built from the smaller identifier
// first, so (a, b) and (b, a) address the same row.
func ShouldSwapImagePair(imageID1, imageID2 int64) bool {
	return imageID1 > imageID2
}

// ImagePairToPairID packs an image pair into its canonical pair identifier.
func ImagePairToPairID(imageID1, imageID2 int64) int64 {
	if ShouldSwapImagePair(imageID1, imageID2) {
		imageID1, imageID2 = imageID2, imageID1
	}
	return imageID1*MaxNumImages + imageID2
}

// PairIDToImagePair unpacks a pair identifier into its ordered image pair.
func PairIDToImagePair(pairID int64) (imageID1, imageID2 int64) {
	imageID2 = pairID % MaxNumImages
	imageID1 = (pairID - imageID2) / MaxNumImages
	return imageID1, imageID2
}
