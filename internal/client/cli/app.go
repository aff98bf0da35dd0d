package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/abidm-bit/riceKrispies/internal/client/api"
	"github.com/abidm-bit/riceKrispies/internal/client/config"
)

// ErrUsage is returned for a missing or unknown command.
var ErrUsage = errors.New("usage: client [-c file] [-server URL] [-timeout d] register|login|fetch [-email E] [-token T]")

type App struct {
	client *api.Client
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		client: api.New(cfg.ServerURL, cfg.Timeout),
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// splitArgs separates the global flags from the command and its flags.
func splitArgs(args []string) (global []string, cmd string, rest []string, err error) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("c", "", "")
	fs.String("config", "", "")
	fs.String("server", "", "")
	fs.Duration("timeout", 0, "")

	if err := fs.Parse(args); err != nil {
		return nil, "", nil, err
	}
	if fs.NArg() == 0 {
		return nil, "", nil, ErrUsage
	}
	tail := fs.Args()
	return args[:len(args)-len(tail)], tail[0], tail[1:], nil
}

// Run parses args (without the program name) and executes one command.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	global, cmd, rest, err := splitArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(global)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	token := fs.String("token", "", "JWT from a previous login (fetch only)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	a := NewApp(cfg, in, out)

	switch cmd {
	case "register":
		return a.Register(ctx, *email)
	case "login":
		_, err := a.Login(ctx, *email)
		return err
	case "fetch":
		return a.Fetch(ctx, *email, *token)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) credentials(email string) (string, string, error) {
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.in, "Enter email", a.out); err != nil {
			return "", "", err
		}
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func (a *App) Register(ctx context.Context, email string) error {
	email, password, err := a.credentials(email)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created")
	return nil
}

func (a *App) Login(ctx context.Context, email string) (*api.LoginResult, error) {
	email, password, err := a.credentials(email)
	if err != nil {
		return nil, err
	}
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "user id: %d\ntoken: %s\n", res.UserID, res.Token)
	return res, nil
}

// Fetch claims one key. Without a token it logs in first.
func (a *App) Fetch(ctx context.Context, email, token string) error {
	if token == "" {
		res, err := a.Login(ctx, email)
		if err != nil {
			return err
		}
		token = res.Token
	}

	k, err := a.client.FetchKey(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "key: %s\n", k.Key)
	return nil
}
