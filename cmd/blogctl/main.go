// blogctl manages blog accounts out of band. The web application has no
// registration form, so authors are created here against the configured store.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"entryblog/internal/app"
	"entryblog/internal/config"
	"entryblog/internal/logging"
	"entryblog/internal/service"
)

const usage = `usage: blogctl <command> [flags]

commands:
  adduser   create an author account
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	switch args[0] {
	case "adduser":
		return runAddUser(ctx, args[1:], in, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runAddUser(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	var name, email, password string

	flagSet := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&name, "name", "n", "", "display name shown on entries (required)")
	flagSet.StringVarP(&email, "email", "e", "", "login email (required)")
	flagSet.StringVarP(&password, "password", "p", "", "password; prompted for when omitted")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		flagSet.Usage()
		return fmt.Errorf("%w: --name and --email are required", errUsage)
	}

	if password == "" {
		pw, err := promptPassword(in, out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = pw
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Log.Env, "warn")

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	users := service.NewUserService(store.Users, cfg.Auth.BcryptCost)
	user, err := users.Register(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Fprintf(out, "created user %d (%s <%s>)\n", user.ID, user.Name, user.Email)
	return nil
}

// promptPassword reads without echo from a terminal, or a single line otherwise.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
