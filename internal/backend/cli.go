package backend

import (
	"context"
	"fmt"
	"strings"
)

// outputFormat selects how a tool's search / list output is parsed.
type outputFormat int

const (
	// formatColumns: "name version ..." per line; indented lines and
	// lines without fields are skipped.
	formatColumns outputFormat = iota
	// formatSlashName: first field is "name/suffix" (apt, pacman-style
	// "repo/name" is handled by formatRepoSlash).
	formatSlashName
	// formatRepoSlash: first field is "repo/name", version in the second
	// field.
	formatRepoSlash
	// formatNamesOnly: bare package names, whitespace separated.
	formatNamesOnly
)

// Definition is the command table for one package-manager tool. A nil
// verb slice means the tool has no such verb; Purge falls back to the
// Remove arguments when nil.
type Definition struct {
	Name string
	Bin  string

	// SearchBin / RemoveBin / ListBin override Bin for tools that split
	// those verbs across binaries (apt-cache, dpkg-query, xbps-query,
	// xbps-remove).
	SearchBin string
	RemoveBin string
	ListBin   string

	SearchArgs  []string
	InstallArgs []string
	RemoveArgs  []string
	PurgeArgs   []string
	UpdateArgs  []string
	UpgradeArgs []string
	ListArgs    []string

	SearchFormat outputFormat
	ListFormat   outputFormat
}

// CLI adapts one Definition into a Backend by shelling out through a
// Runner.
type CLI struct {
	def Definition
	run Runner
}

// NewCLI builds a CLI backend from a definition and a runner.
func NewCLI(def Definition, run Runner) *CLI {
	return &CLI{def: def, run: run}
}

func (c *CLI) Name() string { return c.def.Name }

// IsAvailable probes PATH for the backend's binary.
func (c *CLI) IsAvailable() bool {
	_, err := c.run.LookPath(c.def.Bin)
	return err == nil
}

func (c *CLI) Search(ctx context.Context, query string) (*Result, error) {
	if c.def.SearchArgs == nil {
		return nil, fmt.Errorf("%s: search not supported", c.def.Name)
	}
	bin := c.def.SearchBin
	if bin == "" {
		bin = c.def.Bin
	}
	output, err := c.invokeBin(ctx, bin, c.def.SearchArgs, query)
	if err != nil {
		return c.failure(err, output)
	}
	return &Result{
		Success:  true,
		Packages: parseOutput(string(output), c.def.SearchFormat),
	}, nil
}

func (c *CLI) Install(ctx context.Context, packages []string) (*Result, error) {
	return c.mutate(ctx, c.def.InstallArgs, packages, "install")
}

func (c *CLI) Remove(ctx context.Context, packages []string) (*Result, error) {
	return c.mutateBin(ctx, c.removeBin(), c.def.RemoveArgs, packages, "remove")
}

func (c *CLI) Purge(ctx context.Context, packages []string) (*Result, error) {
	args := c.def.PurgeArgs
	if args == nil {
		args = c.def.RemoveArgs
	}
	return c.mutateBin(ctx, c.removeBin(), args, packages, "purge")
}

func (c *CLI) removeBin() string {
	if c.def.RemoveBin != "" {
		return c.def.RemoveBin
	}
	return c.def.Bin
}

func (c *CLI) Update(ctx context.Context) (*Result, error) {
	if c.def.UpdateArgs == nil {
		return nil, fmt.Errorf("%s: update not supported", c.def.Name)
	}
	output, err := c.invoke(ctx, c.def.UpdateArgs)
	if err != nil {
		return c.failure(err, output)
	}
	return &Result{Success: true}, nil
}

func (c *CLI) Upgrade(ctx context.Context, packages []string) (*Result, error) {
	if c.def.UpgradeArgs == nil {
		return nil, fmt.Errorf("%s: upgrade not supported", c.def.Name)
	}
	output, err := c.invoke(ctx, c.def.UpgradeArgs, packages...)
	if err != nil {
		return c.failure(err, output)
	}
	return &Result{Success: true}, nil
}

func (c *CLI) ListInstalled(ctx context.Context) ([]PackageInfo, error) {
	if c.def.ListArgs == nil {
		return nil, fmt.Errorf("%s: listing installed packages not supported", c.def.Name)
	}
	bin := c.def.ListBin
	if bin == "" {
		bin = c.def.Bin
	}
	output, err := c.invokeBin(ctx, bin, c.def.ListArgs)
	if err != nil {
		if err == ErrTimeout {
			return nil, err
		}
		return nil, fmt.Errorf("%s: list installed: %w (output: %s)",
			c.def.Name, err, strings.TrimSpace(string(output)))
	}
	return parseOutput(string(output), c.def.ListFormat), nil
}

// mutate runs a verb that takes package arguments.
func (c *CLI) mutate(ctx context.Context, args []string, packages []string, verb string) (*Result, error) {
	return c.mutateBin(ctx, c.def.Bin, args, packages, verb)
}

func (c *CLI) mutateBin(ctx context.Context, bin string, args []string, packages []string, verb string) (*Result, error) {
	if args == nil {
		return nil, fmt.Errorf("%s: %s not supported", c.def.Name, verb)
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("%s: %s requires at least one package", c.def.Name, verb)
	}
	output, err := c.invokeBin(ctx, bin, args, packages...)
	if err != nil {
		return c.failure(err, output)
	}
	return &Result{Success: true}, nil
}

// invoke runs the tool with the verb arguments followed by extra args.
func (c *CLI) invoke(ctx context.Context, verbArgs []string, extra ...string) ([]byte, error) {
	return c.invokeBin(ctx, c.def.Bin, verbArgs, extra...)
}

func (c *CLI) invokeBin(ctx context.Context, bin string, verbArgs []string, extra ...string) ([]byte, error) {
	args := make([]string, 0, len(verbArgs)+len(extra))
	args = append(args, verbArgs...)
	args = append(args, extra...)
	return c.run.Run(ctx, bin, args...)
}

// failure folds a subprocess error into a Result, except for timeouts,
// which propagate as errors so the engine can classify them.
func (c *CLI) failure(err error, output []byte) (*Result, error) {
	if err == ErrTimeout {
		return nil, err
	}
	msg := strings.TrimSpace(string(output))
	if msg == "" {
		msg = err.Error()
	}
	return &Result{Success: false, Error: msg}, nil
}

// parseOutput extracts package infos from tool output per the format.
func parseOutput(output string, format outputFormat) []PackageInfo {
	var pkgs []PackageInfo

	for _, line := range strings.Split(output, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue // descriptions and continuation lines are indented
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch format {
		case formatNamesOnly:
			for _, name := range fields {
				pkgs = append(pkgs, PackageInfo{Name: name})
			}
		case formatSlashName:
			name := fields[0]
			if idx := strings.IndexByte(name, '/'); idx > 0 {
				name = name[:idx]
			}
			pkgs = append(pkgs, PackageInfo{Name: name, Version: fieldAt(fields, 1)})
		case formatRepoSlash:
			name := fields[0]
			if idx := strings.IndexByte(name, '/'); idx >= 0 {
				name = name[idx+1:]
			}
			pkgs = append(pkgs, PackageInfo{Name: name, Version: fieldAt(fields, 1)})
		default: // formatColumns
			pkgs = append(pkgs, PackageInfo{Name: fields[0], Version: fieldAt(fields, 1)})
		}
	}

	return pkgs
}

func fieldAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
