package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
)

// System is the resolved device aggregate a session runs against. It
// caches the dynamic role assignment so input paths can be resolved
// without blocking on the device layer.
type System struct {
	inst *Instance
	dev  driver.System

	// roleMu serializes refreshes; readers load the atomic snapshot
	// and never block, seeing at worst the previous complete snapshot.
	roleMu    sync.Mutex
	roleCache atomic.Pointer[driver.Roles]
}

func newSystem(inst *Instance, dev driver.System) *System {
	s := &System{inst: inst, dev: dev}
	initial := dev.Roles()
	s.roleCache.Store(&initial)
	return s
}

// SystemProperties describes the resolved system.
type SystemProperties struct {
	SystemName          string
	VendorID            uint32
	OrientationTracking bool
	PositionTracking    bool
	MaxLayerCount       int
}

// Properties returns the system description.
func (s *System) Properties() SystemProperties {
	roles := s.roles()
	name := "Strata Simulated System"
	if roles.Head != nil {
		name = roles.Head.Name()
	}
	return SystemProperties{
		SystemName:          name,
		VendorID:            0x5354,
		OrientationTracking: true,
		PositionTracking:    true,
		MaxLayerCount:       maxLayerCount,
	}
}

// ViewConfigurations lists the view arrangements the system can drive.
func (s *System) ViewConfigurations() []api.ViewConfigurationType {
	if s.dev.Compositor() == nil {
		return nil
	}
	return []api.ViewConfigurationType{api.ViewConfigurationStereo}
}

// BlendModes lists supported blend modes for a view configuration, best
// first.
func (s *System) BlendModes(view api.ViewConfigurationType) ([]api.EnvironmentBlendMode, error) {
	if view != api.ViewConfigurationStereo && view != api.ViewConfigurationMono {
		return nil, api.Resultf(api.ErrViewConfigurationUnsupported, "view configuration %s", view)
	}
	return []api.EnvironmentBlendMode{api.BlendModeOpaque}, nil
}

// Headless reports whether the system has no compositor.
func (s *System) Headless() bool {
	return s.dev.Compositor() == nil
}

// roles returns the cached role snapshot without blocking. A refresh in
// flight means the previous complete snapshot is returned, which is
// tolerable staleness for input resolution.
func (s *System) roles() driver.Roles {
	return *s.roleCache.Load()
}

// refreshRoles pulls a current snapshot from the device layer, blocking
// out any in flight reassignment. Returns true when the assignment
// changed since the last refresh.
func (s *System) refreshRoles() bool {
	s.roleMu.Lock()
	defer s.roleMu.Unlock()
	fresh := s.dev.LockRoles()
	if fresh.Generation == s.roleCache.Load().Generation {
		return false
	}
	s.roleCache.Store(&fresh)
	return true
}

// deviceFor maps a subaction slot to its current device, nil when the
// slot is unfilled.
func (s *System) deviceFor(idx subactionIndex) driver.Device {
	roles := s.roles()
	switch idx {
	case subactionHead:
		return roles.Head
	case subactionLeft:
		return roles.Left
	case subactionRight:
		return roles.Right
	case subactionGamepad:
		return roles.Gamepad
	case subactionEyes:
		return roles.Eyes
	}
	return nil
}
