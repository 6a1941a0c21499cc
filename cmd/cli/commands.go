package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mansoorceksport/mobipent/internal/bootstrap"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/repository"
	"github.com/mansoorceksport/mobipent/internal/service"
)

// commands runs one CLI subcommand against the wired client
type commands struct {
	client *bootstrap.Client
	picker domain.FilePicker
	out    io.Writer
}

func (c *commands) run(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]
	switch name {
	case "login":
		return c.login(ctx, rest)
	case "signup":
		return c.signup(ctx, rest)
	case "logout":
		if err := c.client.Auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged out")
		return nil
	case "whoami":
		return c.whoami()
	case "ping":
		if !c.client.Uploads.Ping(ctx) {
			return fmt.Errorf("%w: backend not reachable at %s", domain.ErrRequestFailed, c.client.Backend.BaseURL())
		}
		fmt.Fprintf(c.out, "Backend reachable at %s\n", c.client.Backend.BaseURL())
		return nil
	case "upload":
		return c.upload(ctx, rest)
	case "scan":
		return c.scan(ctx, rest)
	case "batch":
		return c.batch(ctx, rest)
	case "history":
		return c.history(ctx, rest)
	case "tools":
		for _, tool := range domain.Tools {
			fmt.Fprintln(c.out, tool)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", name)
}

func credentialFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("MOBIPENT_PASSWORD"), "account password (or MOBIPENT_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	return *email, *password, nil
}

func (c *commands) login(ctx context.Context, args []string) error {
	email, password, err := credentialFlags("login", args)
	if err != nil {
		return err
	}
	if err := c.client.Auth.Login(ctx, email, password); err != nil {
		return errors.New(service.LoginErrorMessage(err))
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", email)
	return nil
}

func (c *commands) signup(ctx context.Context, args []string) error {
	email, password, err := credentialFlags("signup", args)
	if err != nil {
		return err
	}
	if _, err := c.client.Auth.Signup(ctx, email, password); err != nil {
		return errors.New(service.SignupErrorMessage(err))
	}
	fmt.Fprintln(c.out, service.SignupSuccessMessage)
	return nil
}

func (c *commands) whoami() error {
	claims, err := c.client.Session.Claims()
	if err != nil {
		return err
	}
	if claims == nil {
		fmt.Fprintln(c.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(c.out, "%s\n", claims.Email())
	if exp := claims.ExpiresAtTime(); !exp.IsZero() {
		fmt.Fprintf(c.out, "Token expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// resolveFile describes the positional argument, or asks the picker when there is none
func (c *commands) resolveFile(ctx context.Context, fs *flag.FlagSet) (domain.FileDescriptor, error) {
	if fs.NArg() > 0 {
		return repository.DescribeURI(fs.Arg(0))
	}
	if c.picker == nil {
		return domain.FileDescriptor{}, errors.New("a file argument is required")
	}
	return c.picker.Pick(ctx)
}

func (c *commands) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	tool := fs.String("tool", domain.ToolStaticAnalysis, "tool name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var result *domain.UploadResult
	if fs.NArg() > 0 {
		file, err := repository.DescribeURI(fs.Arg(0))
		if err != nil {
			return err
		}
		if result, err = c.client.Uploads.RunTool(ctx, file, *tool); err != nil {
			return err
		}
	} else {
		// ping before picking so an unreachable backend never prompts for a file
		if !c.client.Uploads.Ping(ctx) {
			return fmt.Errorf("%w: backend not reachable", domain.ErrRequestFailed)
		}
		file, err := c.resolveFile(ctx, fs)
		if err != nil {
			return err
		}
		if result, err = c.client.Uploads.Upload(ctx, file, *tool); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.out, result.Pretty())
	return nil
}

func (c *commands) scan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := c.resolveFile(ctx, fs)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Selected: %s\n", file.DisplayName())

	result, err := c.client.Uploads.WholeTest(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, result.Pretty())
	return nil
}

func (c *commands) batch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	toolList := fs.String("tools", strings.Join(domain.Tools, ","), "comma-separated tool names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("batch needs a file argument")
	}

	file, err := repository.DescribeURI(fs.Arg(0))
	if err != nil {
		return err
	}

	var tools []string
	for _, t := range strings.Split(*toolList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tools = append(tools, t)
		}
	}

	failed := 0
	for _, r := range c.client.Uploads.Batch(ctx, file, tools) {
		fmt.Fprintf(c.out, "== %s ==\n", r.Tool)
		if r.Err != nil {
			failed++
			fmt.Fprintf(c.out, "Error: %v\n\n", r.Err)
			continue
		}
		fmt.Fprintf(c.out, "%s\n\n", r.Result.Pretty())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed", failed, len(tools))
	}
	return nil
}

func (c *commands) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	clearAll := fs.Bool("clear", false, "remove all entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !c.client.History.Enabled() {
		fmt.Fprintln(c.out, "History is disabled. Set HISTORY_BACKEND to redis or mongo.")
		return nil
	}
	if *clearAll {
		if err := c.client.History.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "History cleared")
		return nil
	}

	entries, err := c.client.History.Recent(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-9s  %-26s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Tool, e.FileName)
		if e.Error != "" {
			line += "  " + e.Error
		}
		fmt.Fprintln(c.out, line)
	}
	return nil
}
