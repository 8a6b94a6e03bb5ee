// walletnet-cli is a command-line front end for the Network Controller:
// it switches the active network, manages custom RPC endpoints, and
// prints status/probe results.
package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/klingon-tech/wallet-netctl/config"
	"github.com/klingon-tech/wallet-netctl/internal/eventbus"
	"github.com/klingon-tech/wallet-netctl/internal/log"
	"github.com/klingon-tech/wallet-netctl/internal/network"
	"github.com/klingon-tech/wallet-netctl/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dataDir := config.DefaultDataDir()
	args := os.Args[1:]
parseFlags:
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		default:
			break parseFlags
		}
	}
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFromFile(dataDir, config.BuildModeProduction)
	if err != nil {
		fatal("load config: %v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	apiKey, err := resolveAPIKey(cfg.APIKey)
	if err != nil {
		fatal("resolve api key: %v", err)
	}

	db, err := storage.NewBadger(cfg.StateDB())
	if err != nil {
		fatal("open state db: %v", err)
	}
	defer db.Close()

	persister := network.NewPersister(db)
	state, err := persister.Load()
	if err != nil {
		fatal("load persisted state: %v", err)
	}

	messenger := eventbus.New()
	ctrl, err := network.NewController(network.Options{
		Messenger: messenger,
		State:     state,
		APIKey:    apiKey,
		TrackEvent: func(payload network.TrackEventPayload) {
			log.Network.Info().Str("event", payload.Event).Msg("analytics event")
		},
		BuildMode: network.BuildModeProduction,
	})
	if err != nil {
		fatal("construct controller: %v", err)
	}
	persister.Attach(ctrl)
	defer ctrl.Destroy()

	if err := ctrl.InitializeProvider(); err != nil {
		fatal("initialize provider: %v", err)
	}

	switch args[0] {
	case "status":
		cmdStatus(ctrl)
	case "switch":
		cmdSwitch(ctrl, args[1:])
	case "add":
		cmdAdd(ctrl, args[1:])
	case "remove":
		cmdRemove(ctrl, args[1:])
	case "list":
		cmdList(ctrl)
	case "reset":
		ctrl.ResetConnection()
		fmt.Println("connection reset")
	case "rollback":
		ctrl.RollbackToPreviousProvider()
		fmt.Println("rolled back to previous provider")
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `walletnet-cli [--datadir PATH] <command> [args]

Commands:
  status                     show the active network and probe results
  switch <mainnet|goerli|sepolia>
                              switch to a built-in network
  switch --id <uuid>          switch to a registered custom network
  add --rpc-url URL --chain-id 0x... --ticker SYM [--nickname NAME] [--activate]
                              add (or update) a custom network
  remove <uuid>               remove a registered custom network
  list                        list registered custom networks
  reset                       force a fresh provider/blockTracker pair and probe
  rollback                    switch back to the previously active provider`)
}

func cmdStatus(ctrl *network.Controller) {
	state := ctrl.ComposedState()
	fmt.Printf("provider:  %s\n", state.Provider.Type)
	fmt.Printf("chainId:   %s\n", state.Provider.ChainID)
	if state.Provider.RPCURL != "" {
		fmt.Printf("rpcUrl:    %s\n", state.Provider.RPCURL)
	}
	fmt.Printf("status:    %s\n", state.NetworkStatus)
	if state.NetworkID != nil {
		fmt.Printf("networkId: %s\n", *state.NetworkID)
	}
	if v, ok := state.NetworkDetails.EIPS[network.EIP1559Slot]; ok && v != nil {
		fmt.Printf("eip1559:   %v\n", *v)
	}
}

func cmdSwitch(ctrl *network.Controller, args []string) {
	if len(args) == 0 {
		fatal("switch: expected a built-in shortname or --id <uuid>")
	}
	if args[0] == "--id" {
		if len(args) < 2 {
			fatal("switch --id: missing uuid")
		}
		id, err := parseUUIDArg(args[1])
		if err != nil {
			fatal("switch --id: %v", err)
		}
		rpcURL, err := ctrl.SetActiveNetwork(id)
		if err != nil {
			fatal("switch: %v", err)
		}
		fmt.Printf("switched to %s\n", rpcURL)
		return
	}
	if err := ctrl.SetProviderType(args[0]); err != nil {
		fatal("switch: %v", err)
	}
	fmt.Printf("switched to %s\n", args[0])
}

func cmdAdd(ctrl *network.Controller, args []string) {
	input := network.UpsertNetworkConfigurationInput{}
	var activate bool
	for len(args) > 0 {
		switch args[0] {
		case "--rpc-url":
			input.RPCURL = args[1]
			args = args[2:]
		case "--chain-id":
			input.ChainID = args[1]
			args = args[2:]
		case "--ticker":
			input.Ticker = args[1]
			args = args[2:]
		case "--nickname":
			input.Nickname = args[1]
			args = args[2:]
		case "--activate":
			activate = true
			args = args[1:]
		default:
			fatal("add: unrecognized flag %q", args[0])
		}
	}
	id, err := ctrl.UpsertNetworkConfiguration(input, network.UpsertOptions{
		SetActive: activate,
		Referrer:  "walletnet-cli",
		Source:    "cli",
	})
	if err != nil {
		fatal("add: %v", err)
	}
	fmt.Printf("added network %s\n", id)
}

func cmdRemove(ctrl *network.Controller, args []string) {
	if len(args) == 0 {
		fatal("remove: missing uuid")
	}
	id, err := parseUUIDArg(args[0])
	if err != nil {
		fatal("remove: %v", err)
	}
	ctrl.RemoveNetworkConfiguration(id)
	fmt.Println("removed")
}

func cmdList(ctrl *network.Controller) {
	state := ctrl.ComposedState()
	if len(state.NetworkConfigurations) == 0 {
		fmt.Println("(no custom networks registered)")
		return
	}
	for _, nc := range state.NetworkConfigurations {
		fmt.Printf("%s  %-10s  %s  (%s)\n", nc.ID, nc.Ticker, nc.RPCURL, nc.ChainID)
	}
}

func parseUUIDArg(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// ── API key resolution ──────────────────────────────────────────────────

func resolveAPIKey(src config.APIKeySource) (string, error) {
	switch src.Kind {
	case config.APIKeySourceEnv:
		v := os.Getenv(src.EnvVar)
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("environment variable %q is empty", src.EnvVar)
		}
		return v, nil
	case config.APIKeySourceFile:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", fmt.Errorf("read api key file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case config.APIKeySourcePrompt:
		password, err := readPassword("API key: ")
		if err != nil {
			return "", err
		}
		return string(password), nil
	default:
		return "", fmt.Errorf("unknown apikey.source %q", src.Kind)
	}
}

// ── Password helper ──────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ──────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
