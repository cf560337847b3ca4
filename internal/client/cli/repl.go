package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

var errExit = errors.New("exit")

const helpText = "Available commands: register, login, me, generate-key, stop, (l)ist, check-key <key>, logout, exit"

// execIface is the command surface the REPL and one-shot mode dispatch to.
// The real App satisfies it; tests provide a lightweight stub.
type execIface interface {
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	GenerateKey(ctx context.Context) error
	Stop(ctx context.Context) error
	List(ctx context.Context) error
	CheckKey(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// dispatch runs one command. errExit is returned for "exit" and "quit".
func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		printlnFn(helpText)
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "me", "whoami":
		return a.Me(ctx)
	case "generate-key", "gen":
		return a.GenerateKey(ctx)
	case "stop":
		return a.Stop(ctx)
	case "l", "list":
		return a.List(ctx)
	case "check-key":
		return a.CheckKey(ctx, args)
	case "logout":
		return a.Logout(ctx)
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// runREPL reads commands line by line until EOF, "exit" or "quit", or until
// ctx is cancelled. Command errors are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn("sk> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		err := dispatch(ctx, a, parts[0], parts[1:])
		if errors.Is(err, errExit) {
			printlnFn("Bye!")
			return
		}
		if err != nil {
			reportError(err)
		}
	}
}
