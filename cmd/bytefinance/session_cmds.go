package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type loginCmd struct {
	email    string
	password string
	remember bool
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in and persist the session token" }
func (*loginCmd) Usage() string {
	return `bytefinance login -email <email> -password <password> [-remember]

Exchanges credentials for a bearer token and stores it in the local
session store so later commands run authenticated.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "account email")
	f.StringVar(&c.password, "password", "", "account password")
	f.BoolVar(&c.remember, "remember", false, "request a long-lived token")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.session.Login(ctx, c.email, c.password, c.remember); err != nil {
		if msg := a.session.State().Err; msg != "" {
			fail(fmt.Errorf("%s", msg))
		} else {
			fail(err)
		}
		return subcommands.ExitFailure
	}
	st := a.session.State()
	fmt.Printf("Logged in as %s <%s>\n", st.User.Name, st.User.Email)
	return subcommands.ExitSuccess
}

type registerCmd struct {
	name     string
	email    string
	password string
	confirm  string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account and log in" }
func (*registerCmd) Usage() string {
	return `bytefinance register -name <name> -email <email> -password <pw> -confirm <pw>

Validates locally (all fields set, password at least 8 characters and
matching the confirmation) before contacting the backend.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "account email")
	f.StringVar(&c.password, "password", "", "account password")
	f.StringVar(&c.confirm, "confirm", "", "password confirmation")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.session.Register(ctx, c.name, c.email, c.password, c.confirm); err != nil {
		if msg := a.session.State().Err; msg != "" {
			fail(fmt.Errorf("%s", msg))
		} else {
			fail(err)
		}
		return subcommands.ExitFailure
	}
	st := a.session.State()
	fmt.Printf("Registered and logged in as %s <%s>\n", st.User.Name, st.User.Email)
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "revoke the token and clear the local session" }
func (*logoutCmd) Usage() string {
	return `bytefinance logout

Revokes the token server side when reachable. The local session is
cleared either way.
`
}
func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (c *logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.session.Logout(ctx); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println("Logged out")
	return subcommands.ExitSuccess
}

type meCmd struct{}

func (*meCmd) Name() string     { return "me" }
func (*meCmd) Synopsis() string { return "show the current session identity" }
func (*meCmd) Usage() string {
	return `bytefinance me

Restores the persisted session and prints the authenticated identity.
`
}
func (*meCmd) SetFlags(*flag.FlagSet) {}

func (c *meCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	_ = a.session.Initialize(ctx)
	st := a.session.State()
	if !st.Authenticated() {
		fmt.Println("Not logged in")
		return subcommands.ExitSuccess
	}
	if st.User == nil {
		fmt.Println("Logged in (identity unavailable, backend unreachable)")
		return subcommands.ExitSuccess
	}
	role := "user"
	if st.User.IsAdmin() {
		role = "admin"
	}
	fmt.Printf("%s <%s> (%s)\n", st.User.Name, st.User.Email, role)
	return subcommands.ExitSuccess
}
