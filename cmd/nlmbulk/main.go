// Command nlmbulk imports and removes NotebookLM sources in bulk.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/cmd/nlmbulk/env"
	"github.com/nlmtools/nlmbulk/internal/api"
	"github.com/nlmtools/nlmbulk/internal/auth"
	"github.com/nlmtools/nlmbulk/internal/batchexecute"
	"github.com/nlmtools/nlmbulk/internal/config"
	"github.com/nlmtools/nlmbulk/internal/rpc"
)

// Global flags
var (
	cookies    string
	account    int
	debug      bool
	configPath string
)

func init() {
	flag.StringVar(&cookies, "cookies", os.Getenv("NLMBULK_COOKIES"), "session cookies (or set NLMBULK_COOKIES)")
	flag.IntVar(&account, "account", -1, "Google account index (or set NLMBULK_ACCOUNT)")
	flag.BoolVar(&debug, "debug", false, "enable debug output")
	flag.StringVar(&configPath, "config", "", "settings file (default ~/.nlmbulk/config.yaml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Notebook Commands:\n")
		fmt.Fprintf(os.Stderr, "  list, ls          List notebooks\n")
		fmt.Fprintf(os.Stderr, "  create <title>    Create a new notebook\n")
		fmt.Fprintf(os.Stderr, "  rm <id>           Delete a notebook\n")
		fmt.Fprintf(os.Stderr, "  rm-batch <id>...  Delete several notebooks\n\n")

		fmt.Fprintf(os.Stderr, "Source Commands:\n")
		fmt.Fprintf(os.Stderr, "  sources <id>      List sources in notebook\n")
		fmt.Fprintf(os.Stderr, "  add <id> <url>... Add urls to notebook\n")
		fmt.Fprintf(os.Stderr, "  add-text <id> <title>  Add text from stdin\n")
		fmt.Fprintf(os.Stderr, "  rm-source <id> <source-id>  Remove source\n")
		fmt.Fprintf(os.Stderr, "  rm-sources <id> <source-id>...  Remove several sources\n")
		fmt.Fprintf(os.Stderr, "  wait <id>         Wait until sources finish processing\n\n")

		fmt.Fprintf(os.Stderr, "Bulk Commands:\n")
		fmt.Fprintf(os.Stderr, "  import <id> <file>  Import urls listed in file (- for stdin)\n\n")

		fmt.Fprintf(os.Stderr, "Other Commands:\n")
		fmt.Fprintf(os.Stderr, "  accounts          List signed-in Google accounts\n")
		fmt.Fprintf(os.Stderr, "  call <cmd> [json] Invoke a command through the message boundary\n")
	}
}

func main() {
	flag.Parse()
	env.LoadStoredEnv()

	if cookies == "" {
		cookies = os.Getenv("NLMBULK_COOKIES")
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "nlmbulk: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("command required")
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return err
	}

	accountIndex := settings.Account
	if v := os.Getenv("NLMBULK_ACCOUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			accountIndex = n
		}
	}
	if account >= 0 {
		accountIndex = account
	}

	log := zap.NewNop()
	if debug {
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()
	}

	tokens := auth.NewManager(cookies, auth.WithLogger(log))
	transport := batchexecute.NewClient(batchexecute.Config{
		AccountIndex: accountIndex,
	}, tokens, batchexecute.WithLogger(log))
	client := api.New(rpc.New(transport), tokens,
		api.WithLogger(log), api.WithDebug(debug))

	app := &app{
		client:   client,
		log:      log,
		settings: settings,
		account:  accountIndex,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list", "ls":
		return app.handleList(rest)
	case "create":
		return app.handleCreate(rest)
	case "rm":
		return app.handleDeleteNotebook(rest)
	case "rm-batch":
		return app.handleDeleteNotebooks(rest)
	case "sources":
		return app.handleSources(rest)
	case "add":
		return app.handleAdd(rest)
	case "add-text":
		return app.handleAddText(rest)
	case "rm-source":
		return app.handleDeleteSource(rest)
	case "rm-sources":
		return app.handleDeleteSources(rest)
	case "wait":
		return app.handleWait(rest)
	case "import":
		return app.handleImport(rest)
	case "accounts":
		return app.handleAccounts(rest)
	case "call":
		return app.handleCall(rest)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
