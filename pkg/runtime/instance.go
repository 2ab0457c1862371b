package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/tracelog"
	"github.com/strata-xr/strata-go/pkg/version"
)

// Config carries what an application supplies at instance creation.
type Config struct {
	// ApplicationName identifies the calling application, required.
	ApplicationName string

	// ApplicationVersion is application defined.
	ApplicationVersion uint32

	// RequestedVersion is the API version the application targets.
	RequestedVersion api.Version

	// System is the device layer to run against, required.
	System driver.System

	// Log receives operational logging, defaults to slog.Default().
	Log *slog.Logger

	// Trace receives the machine readable event stream, defaults to off.
	Trace tracelog.Logger
}

// Instance is the root object of a runtime connection. All other handles
// descend from it.
type Instance struct {
	handle.Base

	runID string
	log   *slog.Logger
	trace tracelog.Logger

	appName string

	paths  *pathTree
	events eventQueue
	system *System

	sessionsMu     sync.Mutex
	sessions       []*Session
	sessionCounter int

	setNamesMu     sync.Mutex
	actionSetNames map[string]bool

	profilesMu sync.Mutex
	profiles   map[api.Path]*profile

	start time.Time

	lossPending bool
	lossTime    api.Time
}

// NewInstance validates the application info, resolves the system and
// builds the handle tree root.
func NewInstance(cfg Config) (*Instance, error) {
	if cfg.ApplicationName == "" {
		return nil, api.Resultf(api.ErrNameInvalid, "application name must not be empty")
	}
	if cfg.System == nil {
		return nil, api.Resultf(api.ErrInitializationFailed, "no system supplied")
	}
	if cfg.RequestedVersion != 0 {
		current, _ := version.Parse(version.Current)
		if cfg.RequestedVersion.Major() != current.Major {
			return nil, api.Resultf(api.ErrAPIVersionUnsupported,
				"requested %s, runtime implements %s", cfg.RequestedVersion, version.Current)
		}
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	var trace tracelog.Logger = tracelog.NoopLogger{}
	if cfg.Trace != nil {
		trace = cfg.Trace
	}

	inst := &Instance{
		runID:    uuid.NewString(),
		log:      log,
		trace:    trace,
		appName:  cfg.ApplicationName,
		paths:    newPathTree(),
		profiles: make(map[api.Path]*profile),
		start:    time.Now(),
	}
	if err := handle.InitRoot(&inst.Base, handle.TypeInstance, inst.onDestroy); err != nil {
		return nil, err
	}

	inst.system = newSystem(inst, cfg.System)

	inst.log.Info("instance created",
		"run_id", inst.runID,
		"app", cfg.ApplicationName,
		"runtime_version", version.Current)
	return inst, nil
}

func (inst *Instance) onDestroy(*handle.Base) error {
	inst.log.Info("instance destroyed", "run_id", inst.runID)
	return nil
}

// Destroy tears down the instance and every handle below it.
func (inst *Instance) Destroy() error {
	return handle.Destroy(&inst.Base)
}

// RunID is the UUID assigned to this instance run.
func (inst *Instance) RunID() string {
	return inst.runID
}

// Now returns the current runtime timestamp.
func (inst *Instance) Now() api.Time {
	return api.Time(time.Since(inst.start).Nanoseconds() + 1)
}

// Properties describes the runtime to the application.
type Properties struct {
	RuntimeName    string
	RuntimeVersion api.Version
}

// Properties returns the runtime identification.
func (inst *Instance) Properties() (Properties, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return Properties{}, err
	}
	v, _ := version.Parse(version.Current)
	return Properties{
		RuntimeName:    "Strata",
		RuntimeVersion: api.MakeVersion(v.Major, v.Minor, v.Patch),
	}, nil
}

// StringToPath interns a path string into an atom.
func (inst *Instance) StringToPath(s string) (api.Path, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return api.NullPath, err
	}
	return inst.paths.GetOrCreate(s)
}

// PathToString resolves an atom back to its string.
func (inst *Instance) PathToString(p api.Path) (string, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return "", err
	}
	if !inst.paths.Valid(p) {
		return "", api.Resultf(api.ErrPathInvalid, "atom %d was never interned", p)
	}
	return inst.paths.String(p), nil
}

// System returns the system resolved for the given form factor.
func (inst *Instance) System(form api.FormFactor) (*System, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return nil, err
	}
	if form != api.FormFactorHeadMounted {
		return nil, api.Resultf(api.ErrFormFactorUnsupported, "form factor %s", form)
	}
	if inst.system.roles().Head == nil {
		return nil, api.Resultf(api.ErrFormFactorUnavailable, "no head device connected")
	}
	return inst.system, nil
}

// PollEvent returns the oldest queued event. The boolean is false when
// the queue is empty, which is the EventUnavailable case.
func (inst *Instance) PollEvent() (InstanceEvent, bool, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return InstanceEvent{}, false, err
	}

	// let sessions fold device events and ladder steps in first
	inst.pumpSessions()

	ev, ok := inst.events.Poll()
	return ev, ok, nil
}

// pumpSessions gives every live session a chance to emit its next
// lifecycle event before the queue is drained.
func (inst *Instance) pumpSessions() {
	inst.sessionsMu.Lock()
	sessions := make([]*Session, len(inst.sessions))
	copy(sessions, inst.sessions)
	inst.sessionsMu.Unlock()
	for _, s := range sessions {
		s.pump()
	}
}

func (inst *Instance) registerSession(s *Session) {
	inst.sessionsMu.Lock()
	defer inst.sessionsMu.Unlock()
	inst.sessions = append(inst.sessions, s)
}

func (inst *Instance) unregisterSession(s *Session) {
	inst.sessionsMu.Lock()
	defer inst.sessionsMu.Unlock()
	for i, have := range inst.sessions {
		if have == s {
			inst.sessions = append(inst.sessions[:i], inst.sessions[i+1:]...)
			break
		}
	}
	inst.events.RemoveSession(s)
}

// LossPending marks the instance as going away at the given deadline and
// queues the announcement.
func (inst *Instance) LossPending(at api.Time) {
	inst.events.Push(InstanceEvent{
		InstanceLossPending: &InstanceLossPendingEvent{LossTime: at},
	})
	inst.lossPending = true
	inst.lossTime = at
}
