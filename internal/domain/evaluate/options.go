package evaluate

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// Bootstrap configures race-level resampling for confidence intervals.
type Bootstrap struct {
	Enabled bool
	Samples int
	Seed    int64
}

// WithTopK sets the cutoffs used for the @k metrics.
func WithTopK(ks ...int) Option {
	return func(e *Evaluator) {
		var out []int
		for _, k := range ks {
			if k > 0 {
				out = append(out, k)
			}
		}
		if len(out) > 0 {
			e.topK = out
		}
	}
}

// WithMetrics selects metric families by name. "ndcg@10" and "ndcg" both
// select NDCG; the cutoffs always come from WithTopK.
func WithMetrics(names ...string) Option {
	return func(e *Evaluator) {
		if len(names) > 0 {
			e.metrics = append([]string(nil), names...)
		}
	}
}

// WithBootstrap enables or disables bootstrap intervals.
func WithBootstrap(b Bootstrap) Option {
	return func(e *Evaluator) {
		if b.Samples <= 0 {
			b.Samples = DefaultBootstrapSamples
		}
		e.bootstrap = b
	}
}

// WithParallelism bounds the number of bootstrap samples computed at once.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parallelism = n
		}
	}
}
