package render

import (
	json "github.com/goccy/go-json"

	"github.com/matzehuels/chaintwin/pkg/view"
)

// RenderJSON encodes the scene of v, for clients that draw on their own
// surface.
func RenderJSON(v *view.View, opts ...Option) ([]byte, error) {
	data, err := json.MarshalIndent(BuildScene(v, opts...), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
