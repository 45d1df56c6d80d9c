//go:build !linux && !windows

package platform

// New reports that no windowing backend exists for this platform.
func New() (Backend, error) {
	return nil, ErrUnsupported
}
