package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveOutputBudget_Small(t *testing.T) {
	assert.Equal(t, smallInputOutputCap, adaptiveOutputBudget(100, 16_000))
}

func TestAdaptiveOutputBudget_Medium(t *testing.T) {
	assert.Equal(t, mediumInputOutputCap, adaptiveOutputBudget(5_000, 16_000))
}

func TestAdaptiveOutputBudget_Large(t *testing.T) {
	assert.Equal(t, 16_000, adaptiveOutputBudget(9_000, 16_000))
}

func TestAdaptiveOutputBudget_BoundaryAtMediumThreshold(t *testing.T) {
	assert.Equal(t, mediumInputOutputCap, adaptiveOutputBudget(mediumInputTokenThreshold, 16_000))
}

func TestAdaptiveOutputBudget_VendorCapBelowTier(t *testing.T) {
	// A vendor whose own ceiling is smaller than the tier cap wins.
	assert.Equal(t, 800, adaptiveOutputBudget(100, 800))
}

func TestAdaptiveOutputBudget_LargeInputNoVendorCap(t *testing.T) {
	assert.Equal(t, 0, adaptiveOutputBudget(50_000, 0))
}
