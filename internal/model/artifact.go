package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Artifact is the loadable model bundle: the trained classifier, its
// fitted encoders, and the list of categorical column names.
type Artifact struct {
	Model           *Logistic  `json:"model"`
	Encoders        EncoderSet `json:"encoders"`
	CategoricalCols []string   `json:"categorical_cols"`
}

// LoadArtifact reads and validates a model bundle from disk.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if a.Model == nil {
		return nil, fmt.Errorf("model artifact %s: no classifier present", path)
	}
	if err := a.Model.Validate(); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	for name, le := range a.Encoders {
		if len(le.Classes) == 0 {
			return nil, fmt.Errorf("model artifact %s: encoder %q has no classes", path, name)
		}
		le.buildIndex()
	}
	if len(a.CategoricalCols) == 0 {
		a.CategoricalCols = a.Encoders.Columns()
	}
	return &a, nil
}
