package dao

import "log/slog"

// Option configures a DAO at construction time.
type Option func(*options)

type options struct {
	defaultSort []SortCriterion
	logger      *slog.Logger
}

// WithDefaultSortCriteria sets the ordering used by FindAll, FindByExample and
// by FindPage when it is called without criteria.
func WithDefaultSortCriteria(criteria ...SortCriterion) Option {
	return func(o *options) {
		o.defaultSort = append([]SortCriterion(nil), criteria...)
	}
}

// WithLogger sets the DAO logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
