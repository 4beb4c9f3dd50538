package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/netbardus/macshare/internal/catalog"
	"github.com/netbardus/macshare/internal/config"
	"github.com/netbardus/macshare/internal/daemon"
	"github.com/netbardus/macshare/internal/natstore"
	"github.com/netbardus/macshare/internal/privilege"
	"github.com/netbardus/macshare/internal/sharing"
	"github.com/netbardus/macshare/internal/util"
)

// app bundles the wired-up collaborators for one command invocation.
type app struct {
	cfg     config.Config
	env     *util.Env
	log     *log.Logger
	catalog *catalog.Catalog
	store   *natstore.Store
	service *daemon.Controller
	gate    *privilege.Gate
	machine *sharing.Machine
}

// newApp loads configuration and wires the components. readonly selects a
// read-only filesystem for commands that only inspect state.
func newApp(ctx context.Context, readonly bool) (*app, error) {
	logger := newLogger()

	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadOptional(cfgPath)
	if err != nil {
		return nil, err
	}

	var env *util.Env
	if readonly {
		env = util.NewReadonlyOsEnv()
	} else {
		env = util.NewOsEnv()
	}
	env.Cmd = util.NewCommandRunner().WithContext(ctx)

	cat := catalog.New(env)
	cat.PreferencesPath = cfg.PreferencesPlist

	store := natstore.New(env.Fs)
	store.Path = cfg.NATPlist

	svc := daemon.New(env, logger)
	svc.Label = cfg.DaemonLabel
	svc.DaemonPlist = cfg.DaemonPlist
	svc.BridgeName = cfg.BridgeName
	svc.PollAttempts = cfg.Converge.Attempts
	if maxInterval, err := cfg.MaxPollInterval(); err == nil {
		svc.PollMax = maxInterval
	}

	gate := privilege.New(cfg.NATPlist)

	return &app{
		cfg:     cfg,
		env:     env,
		log:     logger,
		catalog: cat,
		store:   store,
		service: svc,
		gate:    gate,
		machine: sharing.New(cat, store, svc, gate, logger),
	}, nil
}

// newLogger builds the CLI logger; --verbose raises it to debug.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// opContext derives the operation context from the --timeout flag.
func opContext(parent context.Context) (context.Context, context.CancelFunc) {
	if flagTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, flagTimeout)
}

// isInteractive reports whether prompts can be shown.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// describeResult prints the outcome of a state change.
func (a *app) describeResult(result *sharing.Result) {
	if !result.Wrote {
		util.ProgressDone(os.Stdout, "Already in the requested state, nothing to do\n")
		return
	}
	if result.Record.Enabled {
		util.ProgressDone(os.Stdout, "Internet Sharing enabled: %s → %s\n",
			result.Record.PrimaryDevice, joinDevices(result.Record.SharingDevices))
	} else {
		util.ProgressDone(os.Stdout, "Internet Sharing disabled\n")
	}
}

func joinDevices(devices []string) string {
	out := ""
	for i, device := range devices {
		if i > 0 {
			out += ", "
		}
		out += device
	}
	if out == "" {
		out = "(none)"
	}
	return out
}

// requireArgsOrPrompt returns an error telling the user which flag was
// missing when prompts are unavailable.
func requireArgsOrPrompt(flag string) error {
	return fmt.Errorf("--%s is required when not running interactively", flag)
}
