package hitgen

import "errors"

var (
	// ErrModules indicates a layout with no modules or with module codes that do not fit the record.
	ErrModules = errors.New("hitgen: layout must have at least one dom and one mod, with codes fitting 19 bits")
	// ErrCapacity indicates a capacity that is not a positive multiple of two batch widths.
	ErrCapacity = errors.New("hitgen: capacity must be a positive multiple of 2*BatchWidth")
	// ErrCapacityTooSmall indicates that not every module can reserve two batch widths.
	ErrCapacityTooSmall = errors.New("hitgen: capacity must hold at least 2*BatchWidth hits per module")
	// ErrParams indicates invalid pulse or inter-arrival parameters.
	ErrParams = errors.New("hitgen: invalid generation parameters")
	// ErrRates indicates a negative, NaN or infinite background rate.
	ErrRates = errors.New("hitgen: background rates must be finite and non-negative")
	// ErrInjectorCursor indicates a coincidence injector that returned a cursor outside its view.
	ErrInjectorCursor = errors.New("hitgen: coincidence injector returned an out-of-range cursor")
	// ErrBackend indicates an unknown vector math backend name.
	ErrBackend = errors.New("hitgen: unknown vector math backend")
)
