package feature

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CMVN holds the global mean/variance normalization statistics of the
// acoustic model, one entry per stacked feature dimension.
type CMVN struct {
	Means  []float32 `yaml:"means"`
	Scales []float32 `yaml:"scales"`
}

// LoadCMVN reads normalization statistics from a yaml file.
func LoadCMVN(path string) (*CMVN, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cmvn file: %w", err)
	}

	var c CMVN
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse cmvn file: %w", err)
	}
	if len(c.Means) != len(c.Scales) {
		return nil, fmt.Errorf("cmvn means/scales length mismatch: %d vs %d", len(c.Means), len(c.Scales))
	}
	return &c, nil
}

// Apply normalizes the frames in place: (x + mean) * scale per dimension.
func (c *CMVN) Apply(frames [][]float32) {
	for _, frame := range frames {
		for d := range frame {
			if d >= len(c.Means) {
				break
			}
			frame[d] = (frame[d] + c.Means[d]) * c.Scales[d]
		}
	}
}
