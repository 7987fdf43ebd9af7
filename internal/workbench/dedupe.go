package workbench

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"pictor/internal/models"
)

// DigestContent returns a stable hex digest of a binary payload. Generation
// callers use it to collapse duplicate provider outputs before insertion;
// the store itself never inspects content.
func DigestContent(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DedupeAssets drops assets whose payload digest was already seen, keeping
// first occurrences in order. A pre-insertion filter for UpsertAsset callers,
// not store-level logic.
func DedupeAssets(assets []models.OutputAsset) []models.OutputAsset {
	seen := make(map[string]struct{}, len(assets))
	out := make([]models.OutputAsset, 0, len(assets))
	for _, asset := range assets {
		digest := DigestContent(asset.Content)
		if _, dup := seen[digest]; dup {
			continue
		}
		seen[digest] = struct{}{}
		out = append(out, asset)
	}
	return out
}
