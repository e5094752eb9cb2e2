package batch

import (
	"encoding/json"
	"fmt"
	"os"

	"dualmode-renderer/internal/camera"
)

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Index    int        `json:"index"`
	Image    string     `json:"image,omitempty"`
	Depth    string     `json:"depth,omitempty"`
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation"`
	Error    string     `json:"error,omitempty"`
}

// WriteManifest writes manifest.json describing every frame of a run.
func WriteManifest(path string, poses []camera.Pose, results []Result) error {
	if len(poses) != len(results) {
		return fmt.Errorf("batch: %d poses but %d results", len(poses), len(results))
	}
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Index:    i,
			Position: poses[i].Position,
			Rotation: poses[i].Rotation,
			Error:    r.Error,
		}
		if r.Success {
			entries[i].Image = r.Image
			entries[i].Depth = r.Depth
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}
