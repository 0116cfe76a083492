package tiered

// Metrics observes the coordinator. Tier indexes follow the order given to
// New. Implementations must be safe for concurrent use.
type Metrics interface {
	// TierHit records a Get served by tier.
	TierHit(tier int)
	// Miss records a Get that no tier could serve.
	Miss()
	// Fill records a fill-back Set sent to tier.
	Fill(tier int)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) TierHit(int) {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Fill(int)    {}

var _ Metrics = NoopMetrics{}
