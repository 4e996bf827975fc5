//go:build !opencl

package field

import "fmt"

func probeCompute(*Grid) (Backend, error) {
	return nil, fmt.Errorf("%w: OpenCL support is not enabled; rebuild with -tags opencl", ErrUnavailable)
}
