//go:build !linux

package n64rd

import "fmt"

func openIOPortBackend(base uint16) (Backend, error) {
	return nil, newError(KindUnsupported, fmt.Errorf("raw ioport backend not implemented on this OS"))
}

func openParportBackend(path string) (Backend, error) {
	return nil, newError(KindUnsupported, fmt.Errorf("parport device backend not implemented on this OS"))
}
