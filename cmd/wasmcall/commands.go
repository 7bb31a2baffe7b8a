//go:build !wasip1

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/reglet-dev/wasm-marshal/config"
	"github.com/reglet-dev/wasm-marshal/host"
)

type command struct {
	name        string
	args        []string
	help        string
	needsModule bool
	run         func(ctx context.Context, inst *host.Instance, args []string, out io.Writer) error
}

var commands = []command{
	{name: "add", args: []string{"a", "b"}, help: "Add two comma-separated float64 lists", needsModule: true, run: runAdd},
	{name: "add-into", args: []string{"a", "b"}, help: "Add two lists into a caller-owned buffer", needsModule: true, run: runAddInto},
	{name: "reverse", args: []string{"text"}, help: "Reverse text, keeping combining marks attached", needsModule: true, run: runReverse(false)},
	{name: "reverse-graphemes", args: []string{"text"}, help: "Reverse text by grapheme cluster", needsModule: true, run: runReverse(true)},
	{name: "stdout", args: []string{"text"}, help: "Have the guest write text to stdout", needsModule: true, run: runWrite(false)},
	{name: "stderr", args: []string{"text"}, help: "Have the guest write text to stderr", needsModule: true, run: runWrite(true)},
	{name: "exports", help: "List the module's exported functions", needsModule: true, run: runExports},
	{name: "schema", help: "Print the configuration file's JSON Schema", run: runSchema},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (c command) synopsis() string {
	parts := []string{c.name}
	for _, a := range c.args {
		parts = append(parts, "<"+a+">")
	}
	return strings.Join(parts, " ")
}

func (c command) checkArgs(args []string) error {
	if len(args) != len(c.args) {
		return fmt.Errorf("%s: want %d argument(s), got %d; usage: %s", c.name, len(c.args), len(args), c.synopsis())
	}
	return nil
}

func runAdd(ctx context.Context, inst *host.Instance, args []string, out io.Writer) error {
	a, b, err := parseOperands(args)
	if err != nil {
		return err
	}
	sum, err := inst.AddArrays(ctx, a, b)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, formatFloats(sum))
	return err
}

func runAddInto(ctx context.Context, inst *host.Instance, args []string, out io.Writer) error {
	a, b, err := parseOperands(args)
	if err != nil {
		return err
	}
	sum := make([]float64, len(a))
	if err := inst.AddArraysInto(ctx, a, b, sum); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, formatFloats(sum))
	return err
}

func runReverse(graphemes bool) func(context.Context, *host.Instance, []string, io.Writer) error {
	return func(ctx context.Context, inst *host.Instance, args []string, out io.Writer) error {
		reverse := inst.Reverse
		if graphemes {
			reverse = inst.ReverseGraphemes
		}
		res, err := reverse(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, res)
		return err
	}
}

func runWrite(toStderr bool) func(context.Context, *host.Instance, []string, io.Writer) error {
	return func(ctx context.Context, inst *host.Instance, args []string, _ io.Writer) error {
		if toStderr {
			return inst.WriteStderr(ctx, args[0])
		}
		return inst.WriteStdout(ctx, args[0])
	}
}

func runExports(_ context.Context, inst *host.Instance, _ []string, out io.Writer) error {
	for _, name := range inst.Exports() {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}

func runSchema(_ context.Context, _ *host.Instance, _ []string, out io.Writer) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(schema))
	return err
}

func parseOperands(args []string) (a, b []float64, err error) {
	if a, err = parseFloats(args[0]); err != nil {
		return nil, nil, fmt.Errorf("a: %w", err)
	}
	if b, err = parseFloats(args[1]); err != nil {
		return nil, nil, fmt.Errorf("b: %w", err)
	}
	return a, b, nil
}

// parseFloats parses a comma-separated list such as "1, 2.5,-3e2". An empty
// string is an empty list.
func parseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}

	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
