// Command strata-headless runs a complete session lifecycle against the
// simulated device layer. It exists to exercise the runtime end to end
// without a graphics stack: instance creation, the session state ladder,
// the frame loop, action sync and teardown, with every step traced.
//
// Usage:
//
//	strata-headless [flags]
//
// Flags:
//
//	-config string     YAML configuration file path
//	-trace string      Trace file path (overrides config)
//	-frames int        Number of frames to run (default 120)
//	-log-level string  Log level: debug, info, warn, error (overrides config)
//
// Examples:
//
//	# Run with defaults, 120 frames
//	strata-headless
//
//	# Run from a config file with tracing
//	strata-headless -config runtime.yaml -trace run.strace
//
//	# Short debug run
//	strata-headless -frames 10 -log-level debug
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/config"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
	"github.com/strata-xr/strata-go/pkg/runtime"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file path")
	tracePath := flag.String("trace", "", "Trace file path (overrides config)")
	frames := flag.Int("frames", 120, "Number of frames to run")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	if err := run(*configPath, *tracePath, *frames, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, tracePath string, frames int, logLevel string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if tracePath != "" {
		cfg.TracePath = tracePath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := newLogger(cfg.LogLevel)

	var trace tracelog.Logger
	if cfg.TracePath != "" {
		fl, err := tracelog.NewFileLogger(cfg.TracePath)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer fl.Close()
		trace = fl
		log.Info("tracing enabled", "path", cfg.TracePath)
	}

	sim := buildSystem(cfg)

	inst, err := runtime.NewInstance(runtime.Config{
		ApplicationName: "strata-headless",
		System:          sim,
		Log:             log,
		Trace:           trace,
	})
	if err != nil {
		return fmt.Errorf("creating instance: %w", err)
	}
	defer inst.Destroy()

	// Interrupts turn into a clean session exit.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupted)

	return runSession(inst, sim, log, frames, interrupted)
}

// buildSystem assembles the simulated device layer from the configuration.
func buildSystem(cfg config.Config) *simulated.System {
	var opts []simulated.Option
	if cfg.Headless {
		opts = append(opts, simulated.WithHeadless())
	}
	sim := simulated.NewSystem(opts...)

	if p := cfg.Devices.LeftController; p != "" {
		sim.AssignLeft(simulated.NewDevice("left controller", p))
	}
	if p := cfg.Devices.RightController; p != "" {
		sim.AssignRight(simulated.NewDevice("right controller", p))
	}
	if p := cfg.Devices.Gamepad; p != "" {
		sim.AssignGamepad(simulated.NewDevice("gamepad", p))
	}
	return sim
}

// runSession walks one session through its full life: ladder up, frame
// loop with action sync, exit request, ladder down.
func runSession(inst *runtime.Instance, sim *simulated.System, log *slog.Logger, frames int, interrupted <-chan os.Signal) error {
	sys, err := inst.System(api.FormFactorHeadMounted)
	if err != nil {
		return fmt.Errorf("resolving system: %w", err)
	}
	props := sys.Properties()
	log.Info("system resolved", "name", props.SystemName)

	sess, err := inst.NewSession(sys)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer sess.Destroy()

	set, selectAction, err := setupActions(inst, sess)
	if err != nil {
		return fmt.Errorf("setting up actions: %w", err)
	}

	if sink := sim.Sink(); sink != nil {
		sink.SetVisibility(true, true)
	}

	if err := waitForState(inst, log, api.SessionStateReady); err != nil {
		return err
	}
	if _, err := sess.Begin(api.ViewConfigurationStereo); err != nil {
		return fmt.Errorf("beginning session: %w", err)
	}

	exitRequested := false
	for frame := 0; ; frame++ {
		ev, ok, err := inst.PollEvent()
		if err != nil {
			return fmt.Errorf("polling events: %w", err)
		}
		if ok && ev.SessionStateChanged != nil {
			state := ev.SessionStateChanged.State
			log.Info("session state", "state", state.String())
			if state == api.SessionStateStopping {
				break
			}
		}

		fr, err := sess.WaitFrame()
		if err != nil {
			return fmt.Errorf("waiting frame: %w", err)
		}
		if _, err := sess.BeginFrame(); err != nil {
			return fmt.Errorf("beginning frame: %w", err)
		}

		syncActionInputs(sess, set, selectAction, log)

		if _, err := sess.EndFrame(fr.DisplayTime, api.BlendModeOpaque, nil); err != nil {
			return fmt.Errorf("ending frame: %w", err)
		}

		if !exitRequested {
			select {
			case <-interrupted:
				log.Info("interrupted, requesting exit")
				exitRequested = true
			default:
			}
			if frame+1 >= frames {
				log.Info("frame budget reached, requesting exit", "frames", frame+1)
				exitRequested = true
			}
			if exitRequested {
				if err := sess.RequestExit(); err != nil {
					return fmt.Errorf("requesting exit: %w", err)
				}
			}
		}
	}

	if err := sess.End(); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	if err := waitForState(inst, log, api.SessionStateExiting); err != nil {
		return err
	}
	log.Info("session complete")
	return nil
}

// setupActions builds a minimal action set bound against the simple
// controller profile so every run exercises the binding path.
func setupActions(inst *runtime.Instance, sess *runtime.Session) (*runtime.ActionSet, *runtime.Action, error) {
	set, err := inst.CreateActionSet("demo", "Demo", 0)
	if err != nil {
		return nil, nil, err
	}

	left, err := inst.StringToPath("/user/hand/left")
	if err != nil {
		return nil, nil, err
	}
	right, err := inst.StringToPath("/user/hand/right")
	if err != nil {
		return nil, nil, err
	}
	selectAction, err := set.CreateAction("select", "Select", api.ActionTypeBoolean, []api.Path{left, right})
	if err != nil {
		return nil, nil, err
	}

	profile, err := inst.StringToPath("/interaction_profiles/khr/simple_controller")
	if err != nil {
		return nil, nil, err
	}
	leftSelect, err := inst.StringToPath("/user/hand/left/input/select/click")
	if err != nil {
		return nil, nil, err
	}
	rightSelect, err := inst.StringToPath("/user/hand/right/input/select/click")
	if err != nil {
		return nil, nil, err
	}
	err = inst.SuggestBindings(profile, []runtime.SuggestedBinding{
		{Action: selectAction, Binding: leftSelect},
		{Action: selectAction, Binding: rightSelect},
	})
	if err != nil {
		return nil, nil, err
	}

	if err := sess.AttachActionSets([]*runtime.ActionSet{set}); err != nil {
		return nil, nil, err
	}
	return set, selectAction, nil
}

// syncActionInputs runs one action sync and logs edges. Sync failures
// outside focus are expected while the ladder climbs, so they are only
// surfaced at debug level.
func syncActionInputs(sess *runtime.Session, set *runtime.ActionSet, act *runtime.Action, log *slog.Logger) {
	res, err := sess.SyncActions([]runtime.ActiveActionSet{{Set: set}})
	if err != nil {
		log.Debug("action sync failed", "err", err)
		return
	}
	if res != api.Success {
		return
	}
	state, err := sess.GetBoolean(act, api.NullPath)
	if err != nil {
		log.Debug("reading action failed", "err", err)
		return
	}
	if state.ChangedSinceLastSync {
		log.Info("select edge", "state", state.CurrentState, "at", int64(state.LastChangeTime))
	}
}

// waitForState polls instance events until the state is announced.
func waitForState(inst *runtime.Instance, log *slog.Logger, want api.SessionState) error {
	for i := 0; i < 64; i++ {
		ev, ok, err := inst.PollEvent()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if sc := ev.SessionStateChanged; sc != nil {
			log.Info("session state", "state", sc.State.String())
			if sc.State == want {
				return nil
			}
		}
	}
	return fmt.Errorf("state %s never announced", want)
}

// newLogger builds a text slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
