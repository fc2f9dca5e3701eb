package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcmsim/internal/vehicle"
)

func TestDefaultScenarioHasMandatoryEgo(t *testing.T) {
	scn := Default()
	require.NotEmpty(t, scn.Blueprints)

	var sawEgo bool
	for _, bp := range scn.Blueprints {
		if bp.Category == vehicle.CategoryEgo {
			sawEgo = true
		}
	}
	require.True(t, sawEgo, "default scenario must include a mandatory Ego blueprint")
}

func TestLoadConvertsNonSIUnits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	doc := `{
		"roads": [{"id": "R1", "length_m": 500, "heading_rad": 0, "lanes": [
			{"id": -1, "type": "driving", "width_m": 3.5}
		]}],
		"blueprints": [{
			"road_id": "R1", "lane_id": -1, "s": 10,
			"velocity": 36, "velocity_unit": "kmph",
			"category": "ego",
			"model": {"length_m": 4.5, "width_m": 1.8, "weight": 1.5, "weight_unit": "t"}
		}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	scn, err := Load(path)
	require.NoError(t, err)
	require.Len(t, scn.Blueprints, 1)

	bp := scn.Blueprints[0]
	require.InDelta(t, 10.0, bp.Velocity, 1e-9) // 36 km/h == 10 m/s
	require.InDelta(t, 1500.0, bp.Model.WeightKg, 1e-9)
	require.Equal(t, vehicle.CategoryEgo, bp.Category)
}

func TestLoadRejectsUnknownRoadReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	doc := `{"roads": [], "blueprints": [{"road_id": "missing", "lane_id": -1, "s": 0}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
