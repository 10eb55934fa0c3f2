package worker

import "namearena/pkg/logger"

// Option applies a configuration option to an archive worker.
type Option func(*ArchiveWorker)

// WithName sets the worker's name, used in log output.
func WithName(name string) Option {
	return func(w *ArchiveWorker) {
		w.name = name
	}
}

// WithLogger sets the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *ArchiveWorker) {
		w.logger = l
	}
}
