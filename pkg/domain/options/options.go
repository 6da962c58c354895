// Package options implements the functional options pattern shared by every
// configurable component of the user service.
package options

// Option modifies an options value of type T.
type Option[T any] interface {
	ApplyOption(*T) error
}

// OptionFunc adapts a plain function to the Option interface.
type OptionFunc[T any] func(*T) error

func (f OptionFunc[T]) ApplyOption(o *T) error {
	return f(o)
}

// Apply applies opts to target in order and stops at the first error.
func Apply[T any](target *T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(target); err != nil {
			return err
		}
	}
	return nil
}

// Build starts from defaults, applies opts and returns the result.
func Build[T any](defaults T, opts ...Option[T]) (T, error) {
	target := defaults
	if err := Apply(&target, opts...); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
