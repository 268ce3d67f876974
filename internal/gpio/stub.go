//go:build !linux

package gpio

import "github.com/sweeney/panel-stopwatch/internal/logic"

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns ErrUnsupported on non-Linux platforms.
func NewRealSource(string, []Line) (*RealSource, error) {
	return nil, ErrUnsupported
}

// Read is not implemented on non-Linux platforms.
func (s *RealSource) Read(logic.ChannelID) (bool, error) {
	return false, ErrUnsupported
}

// Watch is not implemented on non-Linux platforms.
func (s *RealSource) Watch(EdgeFunc) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
