package export

import (
	"encoding/json"

	"github.com/Dav1dde/hmtk/internal/hame"
)

// JSON renders a device snapshot as indented JSON.
func JSON(info hame.DeviceInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
