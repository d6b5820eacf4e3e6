// Command atmsim is a CLI bootstrap for the ATM terminal core: it wires
// the engine in core/ against in-memory reference collaborators
// (internal/memcollab) and drives a scripted event sequence (simulate),
// exposes the terminal's Prometheus metrics over HTTP (serve), prints the
// terminal's status (status), reports fixture loads (loadstate), or prints
// its version (version). None of these commands is part of the core's
// scope (spec.md §1): they
// exist only to give the engine somewhere to run, following the teacher's
// cmd/cli package-level-pointer-and-mutex bootstrap convention
// (cmd/cli/bank_institutional_node.go) and its `_ = godotenv.Load()`
// root-command bootstrap idiom (cmd/cli/agriculture.go and friends), so
// ATMTERM_ENV and friends can be supplied by a local .env file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"atmterm/core"
	"atmterm/internal/memcollab"
	"atmterm/internal/transport/httpstatus"
)

var (
	term    *core.Terminal
	display *memcollab.ConsoleDisplay
	metrics *core.Metrics
	termMu  sync.Mutex
)

// scriptEvent is one line of a simulate script (cmd/atmsim/fixtures/script.json).
type scriptEvent struct {
	Type   string         `json:"type"` // "card", "key", "fdk", "host"
	Track2 string         `json:"track2,omitempty"`
	Value  string         `json:"value,omitempty"`
	Class  string         `json:"class,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

func buildTerminal(statesPath, fitsPath, screensPath, luno string) error {
	log := core.NewLogrusLog(logrus.StandardLogger())
	disp := memcollab.NewConsoleDisplay(log)

	statesRaw, err := os.ReadFile(statesPath)
	if err != nil {
		return fmt.Errorf("read states fixture: %w", err)
	}
	states := memcollab.NewMemoryStates()
	if _, err := states.Add(core.StateData{Raw: statesRaw}); err != nil {
		return fmt.Errorf("load states fixture: %w", err)
	}

	fitsRaw, err := os.ReadFile(fitsPath)
	if err != nil {
		return fmt.Errorf("read fits fixture: %w", err)
	}
	fits := memcollab.NewMemoryFITs()
	if _, err := fits.Add(fitsRaw); err != nil {
		return fmt.Errorf("load fits fixture: %w", err)
	}

	screens := memcollab.NewMemoryScreens()
	if screensPath != "" {
		if screensRaw, err := os.ReadFile(screensPath); err == nil {
			if err := memcollab.LoadScreensYAML(screens, screensRaw); err != nil {
				return fmt.Errorf("load screens fixture: %w", err)
			}
		} else {
			log.Warn("screens fixture not found, continuing without it", map[string]any{"path": screensPath})
		}
	}

	settings := memcollab.NewMemorySettings(map[string]string{"host.luno": luno})
	crypto := core.NewAESGCMCrypto()
	demoKey := make([]byte, 16) // simulator-only placeholder comms key
	if _, err := crypto.SetCommsKey(demoKey, 16); err != nil {
		return fmt.Errorf("install demo comms key: %w", err)
	}

	m := core.NewMetrics()
	t, err := core.NewTerminal(core.TerminalConfig{
		Screens:  screens,
		States:   states,
		FITs:     fits,
		Crypto:   crypto,
		Display:  disp,
		Hardware: memcollab.NewStaticHardware(),
		Settings: settings,
		Log:      log,
		Metrics:  m,
	})
	if err != nil {
		return fmt.Errorf("construct terminal: %w", err)
	}

	termMu.Lock()
	term, display, metrics = t, disp, m
	termMu.Unlock()
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	statesPath, _ := cmd.Flags().GetString("states")
	fitsPath, _ := cmd.Flags().GetString("fits")
	screensPath, _ := cmd.Flags().GetString("screens")
	scriptPath, _ := cmd.Flags().GetString("script")
	startState, _ := cmd.Flags().GetString("start")
	luno, _ := cmd.Flags().GetString("luno")

	if err := buildTerminal(statesPath, fitsPath, screensPath, luno); err != nil {
		return err
	}

	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	var events []scriptEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	term.Dispatch(core.HostMessage{
		MessageClass: "DataCommand",
		Data: map[string]any{
			"message_identifier": "EnhancedConfigurationDataLoad",
			"parameters": []map[string]string{
				{"id": "000", "value": startState},
			},
		},
	})
	reply := term.Dispatch(core.HostMessage{
		MessageClass: "TerminalCommand",
		Data: map[string]any{
			"command_code": "GoInService",
		},
	})
	fmt.Fprintf(cmd.OutOrStdout(), "go in-service: %s\n", describeReply(reply))

	for i, ev := range events {
		switch ev.Type {
		case "card":
			term.ReadCard(ev.Track2)
		case "key":
			term.ProcessPinpadButtonPressed(ev.Value)
		case "fdk":
			term.ProcessFDKButtonPressed(ev.Value)
		case "host":
			reply := term.Dispatch(core.HostMessage{MessageClass: ev.Class, Data: ev.Data})
			fmt.Fprintf(cmd.OutOrStdout(), "host reply: %s\n", describeReply(reply))
		default:
			return fmt.Errorf("script event %d: unknown type %q", i, ev.Type)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s state=%s pin_len=%d amount=%s\n",
			i, ev.Type, term.CurrentState(), len(term.Buffers().Get(core.BufferPIN)), term.Buffers().Get(core.BufferAmount))
	}

	if req := term.TransactionRequest(); req != nil {
		enc, _ := json.MarshalIndent(req, "", "  ")
		fmt.Fprintf(cmd.OutOrStdout(), "transaction request:\n%s\n", enc)
		term.ClearTransactionRequest()
	}
	return nil
}

func describeReply(r core.HostReply) string {
	enc, _ := json.Marshal(r.Data)
	return r.MessageID + " " + string(enc)
}

func runServe(cmd *cobra.Command, args []string) error {
	statesPath, _ := cmd.Flags().GetString("states")
	fitsPath, _ := cmd.Flags().GetString("fits")
	screensPath, _ := cmd.Flags().GetString("screens")
	luno, _ := cmd.Flags().GetString("luno")
	addr, _ := cmd.Flags().GetString("addr")

	if err := buildTerminal(statesPath, fitsPath, screensPath, luno); err != nil {
		return err
	}
	srv := httpstatus.New(metrics, logrus.StandardLogger())
	return srv.ListenAndServe(addr)
}

func simulateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "simulate",
		Short: "drive the terminal core through a scripted event sequence",
		RunE:  runSimulate,
	}
	c.Flags().String("states", "cmd/atmsim/fixtures/states.json", "path to a JSON state table fixture")
	c.Flags().String("fits", "cmd/atmsim/fixtures/fits.json", "path to a JSON FIT fixture")
	c.Flags().String("screens", "cmd/atmsim/fixtures/screens.yaml", "path to a YAML screens fixture (optional)")
	c.Flags().String("script", "cmd/atmsim/fixtures/script.json", "path to a JSON event script")
	c.Flags().String("start", "000", "starting state number, installed as initial_screen_number before GoInService drives from it")
	c.Flags().String("luno", core.DefaultLUNO, "terminal LUNO for assembled requests")
	return c
}

func serveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "construct a terminal and expose its metrics over HTTP",
		RunE:  runServe,
	}
	c.Flags().String("states", "cmd/atmsim/fixtures/states.json", "path to a JSON state table fixture")
	c.Flags().String("fits", "cmd/atmsim/fixtures/fits.json", "path to a JSON FIT fixture")
	c.Flags().String("screens", "cmd/atmsim/fixtures/screens.yaml", "path to a YAML screens fixture (optional)")
	c.Flags().String("luno", core.DefaultLUNO, "terminal LUNO for assembled requests")
	c.Flags().String("addr", ":8080", "listen address for /healthz and /metrics")
	return c
}

func runStatus(cmd *cobra.Command, args []string) error {
	statesPath, _ := cmd.Flags().GetString("states")
	fitsPath, _ := cmd.Flags().GetString("fits")
	screensPath, _ := cmd.Flags().GetString("screens")
	luno, _ := cmd.Flags().GetString("luno")

	if err := buildTerminal(statesPath, fitsPath, screensPath, luno); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status=%s config_id=%s state=%s\n",
		term.Status(), term.ConfigID(), term.CurrentState())
	return nil
}

func runLoadstate(cmd *cobra.Command, args []string) error {
	statesPath, _ := cmd.Flags().GetString("states")
	fitsPath, _ := cmd.Flags().GetString("fits")
	screensPath, _ := cmd.Flags().GetString("screens")

	states := memcollab.NewMemoryStates()
	if statesPath != "" {
		raw, err := os.ReadFile(statesPath)
		if err != nil {
			return fmt.Errorf("read states fixture: %w", err)
		}
		if _, err := states.Add(core.StateData{Raw: raw}); err != nil {
			return fmt.Errorf("load states fixture: %w", err)
		}
	}

	fits := memcollab.NewMemoryFITs()
	if fitsPath != "" {
		raw, err := os.ReadFile(fitsPath)
		if err != nil {
			return fmt.Errorf("read fits fixture: %w", err)
		}
		if _, err := fits.Add(raw); err != nil {
			return fmt.Errorf("load fits fixture: %w", err)
		}
	}

	screens := memcollab.NewMemoryScreens()
	added := 0
	if screensPath != "" {
		raw, err := os.ReadFile(screensPath)
		if err != nil {
			return fmt.Errorf("read screens fixture: %w", err)
		}
		if err := memcollab.LoadScreensYAML(screens, raw); err != nil {
			return fmt.Errorf("load screens fixture: %w", err)
		}
		added = screens.Len()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "loaded states=%t fits=%t screens=%d\n",
		statesPath != "", fitsPath != "", added)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the atmsim build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "atmsim dev")
		},
	}
}

func statusCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "construct a terminal from fixtures and print its status and config-id",
		RunE:  runStatus,
	}
	c.Flags().String("states", "cmd/atmsim/fixtures/states.json", "path to a JSON state table fixture")
	c.Flags().String("fits", "cmd/atmsim/fixtures/fits.json", "path to a JSON FIT fixture")
	c.Flags().String("screens", "cmd/atmsim/fixtures/screens.yaml", "path to a YAML screens fixture (optional)")
	c.Flags().String("luno", core.DefaultLUNO, "terminal LUNO for assembled requests")
	return c
}

func loadstateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "loadstate",
		Short: "push state table, FIT, and screen fixtures through the collaborator loaders and report which loaded and the screen count",
		RunE:  runLoadstate,
	}
	c.Flags().String("states", "cmd/atmsim/fixtures/states.json", "path to a JSON state table fixture")
	c.Flags().String("fits", "cmd/atmsim/fixtures/fits.json", "path to a JSON FIT fixture")
	c.Flags().String("screens", "cmd/atmsim/fixtures/screens.yaml", "path to a YAML screens fixture")
	return c
}

func main() {
	root := &cobra.Command{
		Use:   "atmsim",
		Short: "ATM terminal core simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return nil
		},
	}
	root.AddCommand(simulateCmd(), serveCmd(), statusCmd(), loadstateCmd(), versionCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
