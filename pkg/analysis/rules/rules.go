package rules

import (
	"github.com/smith-xyz/stackpath/pkg/config"
)

// Rules provides a convenient aggregator for rule-based components
type Rules struct {
	Classifier *Classifier
}

// NewRules creates a new Rules instance from the run configuration
func NewRules(cfg *config.Config) *Rules {
	return &Rules{
		Classifier: NewClassifier(cfg),
	}
}
