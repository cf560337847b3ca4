package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/streamkeeper/internal/client/client"
	"github.com/dmitrijs2005/streamkeeper/internal/client/config"
	"github.com/dmitrijs2005/streamkeeper/internal/client/services"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/filex"
)

const (
	stateDirName = "streamkeeper"
	stateDBName  = "state.db"
)

type App struct {
	config        *config.Config
	authService   services.AuthService
	streamService services.StreamService
	reader        *bufio.Reader
	closers       []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	dir, err := filex.EnsureStateDir(c.StateDir, stateDirName)
	if err != nil {
		return nil, err
	}

	repos, err := client.InitDatabase(ctx, filepath.Join(dir, stateDBName))
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	api := client.NewRESTClient(c.ServerURL, c.RequestTimeout)

	ingest, err := client.NewGRPCClient(c.IngestEndpointAddr, c.IngestSecret)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	as := services.NewAuthService(api, repos.Session, c.Token)
	ss := services.NewStreamService(api, ingest, as)

	return &App{
		config:        c,
		authService:   as,
		streamService: ss,
		reader:        bufio.NewReader(os.Stdin),
		closers:       []io.Closer{ingest, repos},
	}, nil
}

// Run executes args as a single command, or starts the REPL when args is
// empty. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.Close()

	if len(args) == 0 {
		printlnFn("Welcome to streamkeeper CLI (type 'help' for commands)")
		runREPL(ctx, a, bufio.NewScanner(a.reader))
		return 0
	}

	err := dispatch(ctx, a, args[0], args[1:])
	if errors.Is(err, errExit) {
		return 0
	}
	if err != nil {
		reportError(err)
		return 1
	}
	return 0
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

// reportError prints err in a form meant for a person at a terminal.
func reportError(err error) {
	var (
		apiErr *client.APIError
		svcErr *common.Error
	)
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		printlnFn("Not logged in. Run 'login' or 'register' first.")
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server unavailable:", err)
	case errors.As(err, &apiErr):
		printlnFn("Error:", apiErr.Message)
	case errors.As(err, &svcErr):
		printlnFn("Error:", svcErr.Msg)
	default:
		printlnFn(fmt.Sprintf("Error: %v", err))
	}
}
