//go:build !linux

package hook

// unsupportedHook is returned on platforms without a real hook
// implementation.
type unsupportedHook struct{}

func newPlatformHook() Hook {
	return unsupportedHook{}
}

func (unsupportedHook) Start(Callback) error { return ErrNotSupported }

func (unsupportedHook) Stop() {}
