package config

import (
	"math"
	"testing"
)

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if got := cfg.GetGlobalCycleTimeMs(); got != 10 {
		t.Errorf("GetGlobalCycleTimeMs() = %d, want 10", got)
	}
	if got := cfg.GetTimeToBrakeSec(); got != 1.0 {
		t.Errorf("GetTimeToBrakeSec() = %v, want 1.0", got)
	}
	if got := cfg.GetMinSpawningDistanceM(); got != 1.0 {
		t.Errorf("GetMinSpawningDistanceM() = %v, want 1.0", got)
	}
	if got := cfg.GetAssumedBrakeAccelerationEgo(); got != -6 {
		t.Errorf("GetAssumedBrakeAccelerationEgo() = %v, want -6", got)
	}
	if got := cfg.GetMaxHoldbackTimeMs(); got != 5000 {
		t.Errorf("GetMaxHoldbackTimeMs() = %d, want 5000", got)
	}
	if got := cfg.GetVelocityReductionStepMPS(); math.Abs(got-10.0/3.6) > 1e-9 {
		t.Errorf("GetVelocityReductionStepMPS() = %v, want %v", got, 10.0/3.6)
	}
}

func TestEmptySimParamsFallsBackToDefaults(t *testing.T) {
	cfg := EmptySimParams()

	if got := cfg.GetGlobalCycleTimeMs(); got != 10 {
		t.Errorf("GetGlobalCycleTimeMs() = %d, want 10", got)
	}
	if got := cfg.GetSamplingWidthM(); got != 0.2 {
		t.Errorf("GetSamplingWidthM() = %v, want 0.2", got)
	}
	if got := cfg.GetCollisionDecelerationMPS2(); got != -10 {
		t.Errorf("GetCollisionDecelerationMPS2() = %v, want -10", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	bad := &SimParams{GlobalCycleTimeMs: ptrInt64(-1)}
	if err := bad.Validate(); err == nil {
		t.Error("expected Validate to reject a negative cycle time")
	}

	bad2 := &SimParams{SamplingWidthM: ptrFloat64(0)}
	if err := bad2.Validate(); err == nil {
		t.Error("expected Validate to reject a zero sampling width")
	}
}

func TestLoadSimParamsRejectsNonJSON(t *testing.T) {
	if _, err := LoadSimParams("params.go"); err == nil {
		t.Error("expected LoadSimParams to reject a non-.json path")
	}
}
