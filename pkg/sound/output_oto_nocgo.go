//go:build nocgo
// +build nocgo

package sound

import "errors"

// Stub for static analysis and builds without CGO. OutputAuto falls back
// to the mock output when this returns an error.
func newProductionOutput(format Format) (Output, error) {
	return nil, errors.New("audio not available in nocgo build")
}
