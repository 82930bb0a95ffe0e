package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/vidctl/policy"
	"github.com/hazyhaar/vidctl/settings"
)

// runCommand executes a settings subcommand and writes its result to w.
func runCommand(ctx context.Context, ed *settings.Editor, args []string, w io.Writer) error {
	switch args[0] {
	case "mode":
		return cmdMode(ctx, ed, args[1:], w)
	case "domains":
		return cmdDomains(ctx, ed, args[1:], w)
	case "check":
		return cmdCheck(ctx, ed, args[1:], w)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdMode(ctx context.Context, ed *settings.Editor, args []string, w io.Writer) error {
	var (
		mode policy.Mode
		err  error
	)
	if len(args) == 0 {
		mode, err = ed.Mode(ctx)
	} else {
		mode, err = ed.SetMode(ctx, policy.Mode(args[0]))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, mode)
	return nil
}

func cmdDomains(ctx context.Context, ed *settings.Editor, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("domains: expected list, add or remove")
	}
	fs := flag.NewFlagSet("domains "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	list := fs.String("list", "", "excluded or included (default: list of the current mode)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("domains: %w", err)
	}

	switch args[0] {
	case "list":
		key, domains, err := ed.List(ctx, *list)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "# %s\n", key)
		for _, d := range domains {
			fmt.Fprintln(w, d)
		}
		return nil

	case "add":
		if fs.NArg() != 1 {
			return fmt.Errorf("domains add: expected one domain")
		}
		key, domain, err := ed.AddDomain(ctx, *list, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "added %s to %s\n", domain, key)
		return nil

	case "remove":
		if fs.NArg() != 1 {
			return fmt.Errorf("domains remove: expected one domain")
		}
		key, err := ed.RemoveDomain(ctx, *list, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "removed %s from %s\n", fs.Arg(0), key)
		return nil

	default:
		return fmt.Errorf("domains: unknown action %q", args[0])
	}
}

func cmdCheck(ctx context.Context, ed *settings.Editor, args []string, w io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("check: expected one hostname")
	}
	d, err := ed.Check(ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// cmdHashPassword reads a password from the first line of r and prints
// its bcrypt hash, ready for http.password_hash.
func cmdHashPassword(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("hash-password: read: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("hash-password: empty password")
	}
	hash, err := settings.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash-password: %w", err)
	}
	fmt.Fprintln(w, hash)
	return nil
}
