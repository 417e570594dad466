package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeNotFound means no definition file exists for a name in the
	// scope of a loading context.
	ErrTypeNotFound = errors.New("type definition not found")

	// ErrUnknownBinding means a definition names a binding that is not
	// compiled into the registry.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrRequireCycle means definitions require each other in a loop.
	ErrRequireCycle = errors.New("require cycle")
)

// DiscoveryError records why a single entry could not be cataloged.
type DiscoveryError struct {
	// Path is the file path, or "archive!/entry" for archive entries.
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// LoadReport is the ordered list of per-entry failures of a scan. A failure
// never stops a scan; it is recorded here and the scan moves on.
type LoadReport struct {
	Failures []*DiscoveryError
}

// Len returns the number of recorded failures.
func (r *LoadReport) Len() int { return len(r.Failures) }

// Empty reports whether the scan had no failures.
func (r *LoadReport) Empty() bool { return len(r.Failures) == 0 }

// Err joins all failures, or returns nil for a clean scan.
func (r *LoadReport) Err() error {
	if r.Empty() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *LoadReport) add(path string, err error) {
	r.Failures = append(r.Failures, &DiscoveryError{Path: path, Err: err})
}

func (r *LoadReport) merge(other *LoadReport) {
	r.Failures = append(r.Failures, other.Failures...)
}
