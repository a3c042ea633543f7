package fetch

// Strategy names one of the four fetch tiers the adaptive fetcher escalates
// through. Each costs more (latency, money, or both) than the one before,
// so the fetcher only reaches for the next tier when the current one fails
// or a site's known history says to start higher.
type Strategy string

const (
	StrategyFast       Strategy = "fast"
	StrategyStandard   Strategy = "standard"
	StrategyRobust     Strategy = "robust"
	StrategyAggressive Strategy = "aggressive"
)

// escalationOrder is the default ladder climbed on failure, cheapest first.
var escalationOrder = []Strategy{StrategyFast, StrategyStandard, StrategyRobust, StrategyAggressive}

// Next returns the strategy that follows s in the escalation ladder, and
// false if s is already the last rung.
func (s Strategy) Next() (Strategy, bool) {
	for i, cur := range escalationOrder {
		if cur == s && i+1 < len(escalationOrder) {
			return escalationOrder[i+1], true
		}
	}
	return "", false
}

// Valid reports whether s is one of the four known strategies.
func (s Strategy) Valid() bool {
	for _, cur := range escalationOrder {
		if cur == s {
			return true
		}
	}
	return false
}
