// Package cli implements the sgmagent command-line interface using Cobra.
package cli

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/config"
	"github.com/germtb/sgmagent/internal/diag"
	"github.com/germtb/sgmagent/internal/provider"
	"github.com/germtb/sgmagent/internal/rendezvous"
	"github.com/germtb/sgmagent/internal/state"
	syncpkg "github.com/germtb/sgmagent/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:               "sgmagent",
	Short:             "Secure group messaging agent built on MLS",
	SilenceUsage:      true,
	PersistentPreRunE: loadSession,
	PersistentPostRunE: saveSession,
}

var (
	flagStatePath   string
	flagReset       bool
	flagPid         string
	flagAdapter     string
	flagFilePath    string
	flagDHTHost     string
	flagDHTPort     uint16
	flagVerbose     bool
	flagMetricsFile string
)

// session is the state every subcommand's RunE borrows; it is built once
// in PersistentPreRunE and torn down in PersistentPostRunE (spec.md §9
// "borrowing discipline", generalized from internal/provider.Provider to
// cover the rendezvous adapter and metrics logger alongside it).
type session struct {
	provider *provider.Provider
	adapter  rendezvous.StorageAdapter
	metrics  *diag.Logger
	rawBefore string
}

var sess *session

func init() {
	defaults, err := config.Load()
	if err != nil {
		logrus.WithError(err).Warn("cli: failed to load config defaults, using built-in defaults")
	}

	rootCmd.PersistentFlags().StringVar(&flagStatePath, "state", "", "path to the agent's state file (required)")
	rootCmd.PersistentFlags().BoolVar(&flagReset, "reset", false, "discard any existing state and build a fresh identity")
	rootCmd.PersistentFlags().StringVar(&flagPid, "pid", "agent", "identifier used when generating a fresh pid")
	rootCmd.PersistentFlags().StringVar(&flagAdapter, "adapter", defaults.AdapterOrDefault("file"), "rendezvous storage adapter: file or dht")
	rootCmd.PersistentFlags().StringVar(&flagFilePath, "file-path", defaults.FilePathOrDefault("/tmp/sgmagent"), "directory used by the file adapter")
	rootCmd.PersistentFlags().StringVar(&flagDHTHost, "dht-host", defaults.DHTHostOrDefault("localhost"), "DHT REST proxy host")
	rootCmd.PersistentFlags().Uint16Var(&flagDHTPort, "dht-port", defaults.DHTPortOrDefault(8000), "DHT REST proxy port")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug-level logging and a state-diff on exit")
	rootCmd.PersistentFlags().StringVar(&flagMetricsFile, "metrics-file", "", "optional JSON-lines file to append sync/command metrics to")
	rootCmd.MarkPersistentFlagRequired("state")
}

// loadSession loads (or resets) the agent's state, builds the rendezvous
// adapter and provider, and drains the rendezvous store via the sync
// loop before any command body runs — exactly the order
// original_source/.../main.rs follows between parsing args and matching
// on the requested command.
func loadSession(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	metrics, err := diag.Open(flagMetricsFile)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}

	var st *state.AgentState
	if flagReset {
		logrus.Warn("cli: resetting state")
		st, err = state.Reset(flagPid)
	} else {
		logrus.Debug("cli: loading state from file")
		st, err = state.Load(flagStatePath)
	}
	if err != nil {
		return fmt.Errorf("cli: load state: %w", err)
	}

	var rawBefore string
	if flagVerbose {
		if encoded, err := stateDiffSnapshot(st); err == nil {
			rawBefore = encoded
		}
	}

	var adapter rendezvous.StorageAdapter
	switch flagAdapter {
	case "file":
		adapter = rendezvous.NewFileAdapter(flagFilePath)
	case "dht":
		adapter = rendezvous.NewDHTAdapter(flagDHTHost, flagDHTPort)
	default:
		return fmt.Errorf("cli: unknown adapter %q, want \"file\" or \"dht\"", flagAdapter)
	}
	logrus.WithField("adapter", flagAdapter).Info("cli: rendezvous adapter selected")

	prov := provider.New(st)
	sess = &session{provider: prov, adapter: adapter, metrics: metrics, rawBefore: rawBefore}

	start := time.Now()
	syncErr := syncpkg.Run(adapter, prov)
	metrics.Log(diag.NewEvent("sync", start).Finish(start, syncErr))
	if syncErr != nil {
		return fmt.Errorf("cli: sync: %w", syncErr)
	}
	return nil
}

// saveSession persists the session's state back to flagStatePath exactly
// once, after the command body has run, regardless of which command was
// invoked (original_source/.../main.rs's single trailing
// write_string_to_file call).
func saveSession(cmd *cobra.Command, args []string) error {
	if sess == nil {
		return nil
	}
	defer sess.metrics.Close()

	if flagVerbose && sess.rawBefore != "" {
		if after, err := stateDiffSnapshot(sess.provider.State()); err == nil {
			logrus.WithField("diff", diag.StateDiff(sess.rawBefore, after)).Debug("cli: state document changed this invocation")
		}
	}

	if err := state.Save(flagStatePath, sess.provider.State()); err != nil {
		return fmt.Errorf("cli: save state: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
