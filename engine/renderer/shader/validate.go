package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// Validate compiles source with naga and reports whether it is well formed WGSL.
// The compiled output is discarded; the device compiles the module again on creation.
//
// Parameters:
//   - key: the shader key used in the error message
//   - source: the WGSL source
//
// Returns:
//   - error: ErrValidation wrapping the compiler error
func Validate(key, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidation, key, err)
	}
	return nil
}
