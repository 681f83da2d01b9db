package features

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithFormWindow sets how many previous results the rolling-form features average.
func WithFormWindow(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.formWindow = n
		}
	}
}

// WithReuseFittedMeans makes inference-mode builds impute with the means
// recorded in the fitted state instead of the current dataset's means.
func WithReuseFittedMeans(reuse bool) Option {
	return func(b *Builder) {
		b.reuseFittedMeans = reuse
	}
}

// WithConfigEcho records the configuration used into the fitted state.
func WithConfigEcho(cfg map[string]any) Option {
	return func(b *Builder) {
		if cfg != nil {
			b.configEcho = cfg
		}
	}
}
