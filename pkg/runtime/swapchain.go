package runtime

import (
	"sync"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
)

// Swapchain is a ring of images the application renders into. Image use
// follows a strict acquire, wait, release cycle.
type Swapchain struct {
	handle.Base
	session *Session
	info    driver.SwapchainCreateInfo
	images  driver.SwapchainImages

	mu sync.Mutex

	// indices acquired but not yet released, in acquire order
	acquired []uint32
	// the front acquired image once waited on
	waitDone bool

	next     uint32
	released bool
}

// SwapchainFormats lists the image formats the session's compositor
// accepts, best first.
func (sess *Session) SwapchainFormats() ([]int64, error) {
	if err := sess.checkValid(); err != nil {
		return nil, err
	}
	if sess.comp == nil {
		return nil, nil
	}
	// linear and sRGB RGBA8
	return []int64{0x8C43, 0x8058}, nil
}

// CreateSwapchain allocates image backing through the compositor.
func (sess *Session) CreateSwapchain(info driver.SwapchainCreateInfo) (*Swapchain, error) {
	if err := sess.checkValid(); err != nil {
		return nil, err
	}
	if sess.comp == nil {
		return nil, api.Resultf(api.ErrFeatureUnsupported, "headless session has no swapchains")
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, api.Resultf(api.ErrValidationFailure, "zero swapchain extent")
	}
	if info.FaceCount != 1 && info.FaceCount != 6 {
		return nil, api.Resultf(api.ErrValidationFailure, "face count %d", info.FaceCount)
	}
	if info.ArraySize == 0 {
		info.ArraySize = 1
	}
	if info.MipCount == 0 {
		info.MipCount = 1
	}
	if info.SampleCount == 0 {
		info.SampleCount = 1
	}
	formats, _ := sess.SwapchainFormats()
	ok := false
	for _, f := range formats {
		if f == info.Format {
			ok = true
		}
	}
	if !ok {
		return nil, api.Resultf(api.ErrSwapchainFormatUnsupported, "format %#x", info.Format)
	}

	images, err := sess.comp.CreateSwapchain(info)
	if err != nil {
		return nil, api.Resultf(api.ErrRuntimeFailure, "compositor: %v", err)
	}

	sc := &Swapchain{session: sess, info: info, images: images}
	if err := handle.Init(&sc.Base, handle.TypeSwapchain, &sess.Base, nil); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Swapchain) checkValid() error {
	return handle.Validate(&sc.Base, handle.TypeSwapchain)
}

// Destroy tears down the swapchain.
func (sc *Swapchain) Destroy() error {
	return handle.Destroy(&sc.Base)
}

// Images enumerates the backing image handles.
func (sc *Swapchain) Images() ([]uintptr, error) {
	if err := sc.checkValid(); err != nil {
		return nil, err
	}
	out := make([]uintptr, len(sc.images.Images))
	copy(out, sc.images.Images)
	return out, nil
}

// Acquire reserves the next image index. Acquiring more images than the
// ring holds is a call order error.
func (sc *Swapchain) Acquire() (uint32, error) {
	if err := sc.checkValid(); err != nil {
		return 0, err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if uint32(len(sc.acquired)) >= sc.images.Count {
		return 0, api.Resultf(api.ErrCallOrderInvalid,
			"all %d images already acquired", sc.images.Count)
	}
	idx := sc.next
	sc.next = (sc.next + 1) % sc.images.Count
	sc.acquired = append(sc.acquired, idx)
	return idx, nil
}

// Wait blocks until the oldest acquired image is ready for rendering.
// Waiting twice without a release, or without an acquire, is a call
// order error.
func (sc *Swapchain) Wait(timeout api.Duration) error {
	if err := sc.checkValid(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.acquired) == 0 {
		return api.Resultf(api.ErrCallOrderInvalid, "wait without an acquired image")
	}
	if sc.waitDone {
		return api.Resultf(api.ErrCallOrderInvalid, "image already waited")
	}
	sc.waitDone = true
	return nil
}

// Release hands the waited image back for composition.
func (sc *Swapchain) Release() error {
	if err := sc.checkValid(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.acquired) == 0 || !sc.waitDone {
		return api.Resultf(api.ErrCallOrderInvalid, "release without a waited image")
	}
	sc.acquired = sc.acquired[1:]
	sc.waitDone = false
	sc.released = true
	return nil
}

// everReleased reports whether at least one image completed the cycle,
// the precondition for the swapchain appearing in a layer.
func (sc *Swapchain) everReleased() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.released
}
