package cli

import (
	"context"
	"fmt"
	"os"
)

func (a *App) GenerateKey(ctx context.Context) error {
	s, created, err := a.streamService.GenerateKey(ctx)
	if err != nil {
		return err
	}

	if created {
		printlnFn("Stream key generated:")
	} else {
		printlnFn("You already have an active stream:")
	}
	printlnFn(s.String())
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	s, err := a.streamService.Stop(ctx)
	if err != nil {
		return err
	}

	printlnFn("Stream stopped:")
	printlnFn(s.String())
	return nil
}

func (a *App) List(ctx context.Context) error {
	streams, err := a.streamService.List(ctx)
	if err != nil {
		return err
	}

	if len(streams) == 0 {
		printlnFn("No streams yet")
		return nil
	}
	for _, s := range streams {
		printlnFn(s.String())
	}
	return nil
}

// CheckKey asks the ingest endpoint whether a key may publish, the way a
// media server does on connect. The key is prompted for when not given.
func (a *App) CheckKey(ctx context.Context, args []string) error {
	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		var err error
		key, err = getSimpleText(a.reader, "Enter stream key", os.Stdout)
		if err != nil {
			return err
		}
	}

	grant, err := a.streamService.CheckKey(ctx, key)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Key accepted: user %s, stream %s", grant.UserID, grant.StreamID))
	return nil
}
