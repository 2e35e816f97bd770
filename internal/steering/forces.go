package steering

import "fmt"

// Default actuator magnitudes.
const (
	DefaultEngineForce  = 50.0
	DefaultBrakingForce = 150.0
)

// ControlCommand is applied to the vehicle's physics actuator once per tick.
type ControlCommand struct {
	EngineForce  float64 `json:"engine_force"`
	BrakingForce float64 `json:"braking_force"`
}

func (c ControlCommand) String() string {
	return fmt.Sprintf("engine=%.1f brake=%.1f", c.EngineForce, c.BrakingForce)
}

// ForceMap maps simultaneous touches to forces: one touch drives forward,
// two reverse, three brake, anything else is neutral.
type ForceMap struct {
	Engine  float64
	Braking float64
}

// DefaultForceMap returns the stock magnitudes.
func DefaultForceMap() ForceMap {
	return ForceMap{Engine: DefaultEngineForce, Braking: DefaultBrakingForce}
}

// Command returns the command for touches. Every integer maps to a command.
func (m ForceMap) Command(touches int) ControlCommand {
	switch touches {
	case 1:
		return ControlCommand{EngineForce: m.Engine}
	case 2:
		return ControlCommand{EngineForce: -m.Engine}
	case 3:
		return ControlCommand{BrakingForce: m.Braking}
	default:
		return ControlCommand{}
	}
}

// MapTouchesToForces uses the default force map.
func MapTouchesToForces(touches int) ControlCommand {
	return DefaultForceMap().Command(touches)
}
