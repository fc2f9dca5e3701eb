// Package componentset provides the reference component.Component
// implementations spec §4.3's priority table and SPEC_FULL.md's
// expansion both name: two sensors, one algorithm, two dynamics models,
// one action, plus the collision sensor/response pair. Each is grounded
// either on a concrete original_source implementation
// (Dynamics_Collision on dynamics_collisionImplementation.cpp) or, where
// the pack carries only the plug-in boilerplate header with no algorithm
// body (Sensor_Driver, Sensor_Distance, Algorithm_AgentFollower,
// Dynamics_Longitudinal_Basic, Dynamics_RegularDriving,
// Action_BrakeLight_Basic, Sensor_Collision), on the behavior spec §4.3's
// catalog and SPEC_FULL.md's expansion describe, built in the same
// modelInterface.h shape as the one fully-grounded component.
package componentset

// Representative priority constants (spec §4.3): smaller triggers
// earlier.
const (
	PriorityInitAgent          = 0
	PriorityDynamicsCollision  = 1
	PriorityDynamics           = 3
	PriorityAlgorithmSelector  = 100
	PriorityAlgorithmTrajectory = 150
	PrioritySensorCollision    = 201
	PriorityEgoSensor          = 203
)
