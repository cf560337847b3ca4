package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/streamkeeper/internal/client/client"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and creates the account. The
// returned token is saved, so the user is logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	firstName, err := getSimpleText(a.reader, "First name (optional)", os.Stdout)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name (optional)", os.Stdout)
	if err != nil {
		return err
	}

	s, err := a.authService.Register(ctx, client.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Registered and logged in as %s", s.Username))
	return nil
}

func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	s, err := a.authService.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Logged in as %s", s.Username))
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.authService.Me(ctx)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("%s <%s>  id %s", u.Username, u.Email, u.ID))
	if name := joinName(u.FirstName, u.LastName); name != "" {
		printlnFn("  name:", name)
	}
	return nil
}

// Logout forgets the saved token. Tokens are stateless, so the server is
// not contacted.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
