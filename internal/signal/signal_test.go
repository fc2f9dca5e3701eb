package signal

import "testing"

func TestComponentStateString(t *testing.T) {
	cases := map[ComponentState]string{
		Disabled:      "Disabled",
		Armed:         "Armed",
		Acting:        "Acting",
		ComponentState(99): "Unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ComponentState(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestTypeNames(t *testing.T) {
	cases := []struct {
		sig  Signal
		want string
	}{
		{ScalarDouble{Value: 1.5}, "ScalarDouble"},
		{ScalarInt{Value: 3}, "ScalarInt"},
		{ScalarBool{Value: true}, "ScalarBool"},
		{VectorDouble{Values: []float64{1, 2}}, "VectorDouble"},
		{VectorInt{Values: []int{1, 2}}, "VectorInt"},
		{VectorBool{Values: []bool{true, false}}, "VectorBool"},
		{Dynamics{}, "Dynamics"},
		{Steering{}, "Steering"},
		{Longitudinal{}, "Longitudinal"},
		{SensorData{}, "SensorData"},
	}
	for _, tc := range cases {
		if got := tc.sig.TypeName(); got != tc.want {
			t.Errorf("TypeName() = %q, want %q", got, tc.want)
		}
	}
}

func TestDynamicsDefaultsToZeroValue(t *testing.T) {
	var d Dynamics
	if d.ComponentState != Disabled {
		t.Errorf("zero-value Dynamics.ComponentState = %v, want Disabled", d.ComponentState)
	}
	if d.Velocity != 0 || d.Acceleration != 0 || d.TravelDistance != 0 {
		t.Error("zero-value Dynamics should have all-zero kinematics")
	}
}

func TestSensorDataCarriesDetectedObjects(t *testing.T) {
	sd := SensorData{
		ComponentState: Acting,
		Objects: []DetectedObject{
			{ObjectID: 1, RelativeX: 10, RelativeY: 0, RelativeVx: -5, IsStationary: false},
			{ObjectID: 2, RelativeX: 50, RelativeY: 3.5, IsStationary: true},
		},
	}
	if len(sd.Objects) != 2 {
		t.Fatalf("len(sd.Objects) = %d, want 2", len(sd.Objects))
	}
	if !sd.Objects[1].IsStationary {
		t.Error("expected second object to be stationary")
	}
}
