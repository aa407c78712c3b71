// SPDX-License-Identifier: MPL-2.0

package lifecycle

// Option configures a Base instance.
type Option func(*Base)

// WithErrorChannel sets the buffer size of the asynchronous error channel.
// Default buffer size is 1.
func WithErrorChannel(size int) Option {
	return func(b *Base) {
		b.errCh = make(chan error, size)
	}
}

// WithName sets the service name used in transition errors.
func WithName(name string) Option {
	return func(b *Base) {
		b.name = name
	}
}
