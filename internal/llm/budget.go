package llm

// Output-token caps for small and medium input sizes. Large
// inputs fall through to the vendor's own maximum.
const (
	smallInputTokenThreshold  = 3_000
	mediumInputTokenThreshold = 8_000

	smallInputOutputCap  = 1_200
	mediumInputOutputCap = 2_000
)

// adaptiveOutputBudget derives the output-token cap from input size, so a
// degenerate run on a small input is bounded tightly and a large, legitimate
// profile chunk still gets the vendor's full ceiling.
func adaptiveOutputBudget(inputTokens, vendorMax int) int {
	switch {
	case inputTokens < smallInputTokenThreshold:
		return capAt(smallInputOutputCap, vendorMax)
	case inputTokens <= mediumInputTokenThreshold:
		return capAt(mediumInputOutputCap, vendorMax)
	default:
		return vendorMax
	}
}

func capAt(want, vendorMax int) int {
	if vendorMax > 0 && want > vendorMax {
		return vendorMax
	}
	return want
}
