package model

// ModelInfo describes one selectable assistant model.
type ModelInfo struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Premium bool   `json:"premium,omitempty" yaml:"premium"`
}

// DefaultModelID is used when a request names no model.
const DefaultModelID = "gomega-5"

// DefaultModels is the built-in model registry.
var DefaultModels = []ModelInfo{
	{ID: "gomega-5", Label: "gomega-5 (best)"},
	{ID: "gomega-4o", Label: "gomega-4o (balanced)"},
	{ID: "gomega-4mini", Label: "gomega-4mini (small)"},
	{ID: "gomega-3.0", Label: "gomega-3.0 (legacy)"},
	{ID: "gomega-3mini", Label: "gomega-3mini (fast)"},
	{ID: "local-sm", Label: "local-sm (fast)"},
	{ID: "local-md", Label: "local-md (learning)"},
}

// FindModel returns the model with the given id.
func FindModel(models []ModelInfo, id string) (ModelInfo, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
