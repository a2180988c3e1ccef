package hame

import "encoding/json"

// Scene is the ambient light classification reported by the device.
// It drives the device's display and output behaviour.
type Scene uint8

// Scene values, in protocol code order.
const (
	SceneDay Scene = iota
	SceneNight
	SceneDusk
)

// ParseScene decodes a scene from its protocol code.
//
// Known codes are "0" (day), "1" (night) and "2" (dusk); anything else
// fails with ErrInvalidScene.
func ParseScene(s string) (Scene, error) {
	switch s {
	case "0":
		return SceneDay, nil
	case "1":
		return SceneNight, nil
	case "2":
		return SceneDusk, nil
	default:
		return 0, ErrInvalidScene
	}
}

// String returns the lowercase scene name.
func (s Scene) String() string {
	switch s {
	case SceneDay:
		return "day"
	case SceneNight:
		return "night"
	case SceneDusk:
		return "dusk"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the scene as its lowercase name.
func (s Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
