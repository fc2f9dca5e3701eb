// Package config loads the tunable parameter bag for the simulation core:
// scheduler timing, spawn admission constants, and localization sampling
// width (spec §6). It mirrors the teacher's tuning-config shape — a struct
// of optional (pointer) fields loaded from a canonical JSON defaults file,
// with Get* accessors that fall back to the spec's named constants when a
// field was not present in the file. Partial configs are safe: any field
// omitted from JSON keeps its spec default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical defaults file, the single source of
// truth for every tunable default used outside of tests.
const DefaultConfigPath = "config/simparams.defaults.json"

// SimParams is the root configuration for the scheduler, spawn admission,
// localization engine and collision dynamics. The JSON schema matches the
// parameter bag enumerated in spec §6.
type SimParams struct {
	// Scheduler (spec §6: globalCycleTime, maxSimulationTime, seed)
	GlobalCycleTimeMs  *int64 `json:"global_cycle_time_ms,omitempty"`
	MaxSimulationTimeMs *int64 `json:"max_simulation_time_ms,omitempty"`
	Seed               *int64 `json:"seed,omitempty"`

	// Spawn admission (spec §6: timeToBrake, minSpawningDistance,
	// assumedBrakeAcceleration, assumedFrontDeceleration, maxHoldbackTime,
	// velocityReductionStep)
	TimeToBrakeSec              *float64 `json:"time_to_brake_sec,omitempty"`
	MinSpawningDistanceM        *float64 `json:"min_spawning_distance_m,omitempty"`
	AssumedBrakeAccelerationEgo *float64 `json:"assumed_brake_acceleration_ego,omitempty"`
	AssumedFrontDeceleration    *float64 `json:"assumed_front_deceleration,omitempty"`
	MaxHoldbackTimeMs           *int64   `json:"max_holdback_time_ms,omitempty"`
	VelocityReductionStepMPS    *float64 `json:"velocity_reduction_step_mps,omitempty"`

	// Localization (spec §6: samplingWidth)
	SamplingWidthM *float64 `json:"sampling_width_m,omitempty"`

	// Collision dynamics (spec §4.6)
	CollisionDecelerationMPS2 *float64 `json:"collision_deceleration_mps2,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptySimParams returns a SimParams with every field nil; Get* accessors
// fall back to spec-mandated defaults for any nil field.
func EmptySimParams() *SimParams {
	return &SimParams{}
}

// LoadSimParams loads a SimParams from a JSON file at path. Fields omitted
// from the file keep their spec defaults.
func LoadSimParams(path string) (*SimParams, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimParams()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward through common parent directories. Intended for test
// setup; panics if the file cannot be found.
func MustLoadDefaultConfig() *SimParams {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadSimParams(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that any set fields hold sane values.
func (c *SimParams) Validate() error {
	if c.GlobalCycleTimeMs != nil && *c.GlobalCycleTimeMs <= 0 {
		return fmt.Errorf("global_cycle_time_ms must be positive, got %d", *c.GlobalCycleTimeMs)
	}
	if c.TimeToBrakeSec != nil && *c.TimeToBrakeSec < 0 {
		return fmt.Errorf("time_to_brake_sec must be non-negative, got %f", *c.TimeToBrakeSec)
	}
	if c.MinSpawningDistanceM != nil && *c.MinSpawningDistanceM < 0 {
		return fmt.Errorf("min_spawning_distance_m must be non-negative, got %f", *c.MinSpawningDistanceM)
	}
	if c.SamplingWidthM != nil && *c.SamplingWidthM <= 0 {
		return fmt.Errorf("sampling_width_m must be positive, got %f", *c.SamplingWidthM)
	}
	return nil
}

// GetGlobalCycleTimeMs returns the scheduler's cycle duration, default 10ms.
func (c *SimParams) GetGlobalCycleTimeMs() int64 {
	if c.GlobalCycleTimeMs == nil {
		return 10
	}
	return *c.GlobalCycleTimeMs
}

// GetMaxSimulationTimeMs returns the configured run time limit, default 0
// (no limit; the run stops only via observation end-of-run or invalid
// ego/scenario agent).
func (c *SimParams) GetMaxSimulationTimeMs() int64 {
	if c.MaxSimulationTimeMs == nil {
		return 0
	}
	return *c.MaxSimulationTimeMs
}

// GetSeed returns the stochastics seed, default 0.
func (c *SimParams) GetSeed() int64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetTimeToBrakeSec returns ttb, default 1.0s.
func (c *SimParams) GetTimeToBrakeSec() float64 {
	if c.TimeToBrakeSec == nil {
		return 1.0
	}
	return *c.TimeToBrakeSec
}

// GetMinSpawningDistanceM returns the minimum admissible free space, default 1.0m.
func (c *SimParams) GetMinSpawningDistanceM() float64 {
	if c.MinSpawningDistanceM == nil {
		return 1.0
	}
	return *c.MinSpawningDistanceM
}

// GetAssumedBrakeAccelerationEgo returns the assumed ego braking
// deceleration, default -6 m/s^2.
func (c *SimParams) GetAssumedBrakeAccelerationEgo() float64 {
	if c.AssumedBrakeAccelerationEgo == nil {
		return -6
	}
	return *c.AssumedBrakeAccelerationEgo
}

// GetAssumedFrontDeceleration returns the assumed lead-vehicle braking
// deceleration, default -10 m/s^2.
func (c *SimParams) GetAssumedFrontDeceleration() float64 {
	if c.AssumedFrontDeceleration == nil {
		return -10
	}
	return *c.AssumedFrontDeceleration
}

// GetMaxHoldbackTimeMs returns the hold-back ceiling, default 5000ms.
func (c *SimParams) GetMaxHoldbackTimeMs() int64 {
	if c.MaxHoldbackTimeMs == nil {
		return 5000
	}
	return *c.MaxHoldbackTimeMs
}

// GetVelocityReductionStepMPS returns the per-iteration velocity reduction
// step used by the admission velocity-reduction loop, default 10 km/h
// expressed in m/s.
func (c *SimParams) GetVelocityReductionStepMPS() float64 {
	if c.VelocityReductionStepMPS == nil {
		return 10.0 / 3.6
	}
	return *c.VelocityReductionStepMPS
}

// GetSamplingWidthM returns the localization bounding-box sampling
// resolution, default 0.2m.
func (c *SimParams) GetSamplingWidthM() float64 {
	if c.SamplingWidthM == nil {
		return 0.2
	}
	return *c.SamplingWidthM
}

// GetCollisionDecelerationMPS2 returns the post-collision deceleration rate,
// default -10 m/s^2.
func (c *SimParams) GetCollisionDecelerationMPS2() float64 {
	if c.CollisionDecelerationMPS2 == nil {
		return -10
	}
	return *c.CollisionDecelerationMPS2
}
