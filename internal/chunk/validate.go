package chunk

import "github.com/rotisserie/eris"

// validate enforces the one hard invariant the chunker owes its callers:
// no chunk may exceed maxTokens. packBlocks only produces an over-budget
// chunk when a single line alone exceeds maxTokens (it never cuts inside a
// line), so a violation here reflects the input — callers should treat it
// as non-retriable.
func validate(chunks []draft, maxTokens int) error {
	for i, c := range chunks {
		if c.TokenCount > maxTokens {
			return eris.Errorf("chunk: chunk %d has %d tokens, exceeds effective max of %d", i, c.TokenCount, maxTokens)
		}
	}
	return nil
}
