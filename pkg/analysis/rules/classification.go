package rules

import (
	"github.com/smith-xyz/stackpath/pkg/config"
)

// Classifier decides which trace symbols take part in call-path analysis
type Classifier struct {
	config *config.Config
}

// NewClassifier creates a new classifier with the given configuration
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{config: cfg}
}

// IsInternalSymbol reports whether name is a compiler or runtime helper.
// Such callees are dropped along with everything below them.
func (c *Classifier) IsInternalSymbol(name string) bool {
	if name == "" {
		return false
	}
	return c.config.IsInternalSymbol(name)
}
