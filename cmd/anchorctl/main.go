// anchorctl inspects on-chain program data offline: it derives program
// addresses, computes discriminators, decodes account data through the
// built-in program bindings and scans a local account store.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sava-software/anchor-programs-sub010/pkg/log"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// command is one subcommand. run receives the arguments left after flag
// parsing.
type command struct {
	usage string
	flags func(fs *pflag.FlagSet, opts *options)
	run   func(env *env, args []string) error
}

// options holds every command-specific flag; each command registers only
// the ones it reads.
type options struct {
	token2022       bool
	legacy          bool
	namespace       string
	programID       string
	mint            string
	owner           string
	claimant        string
	distributor     string
	admin           string
	updateAuthority string
	pubkey          string
	lamports        uint64
}

// env is what a command runs against.
type env struct {
	cfg    Config
	opts   options
	out    io.Writer
	logger *zap.Logger
}

func (e *env) print(v any) error {
	enc := yaml.NewEncoder(e.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "write output")
	}
	return enc.Close()
}

var commands = map[string]command{
	"derive":        deriveCommand,
	"ata":           ataCommand,
	"discriminator": discriminatorCommand,
	"decode":        decodeCommand,
	"put":           putCommand,
	"scan":          scanCommand,
	"proof":         proofCommand,
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "anchorctl %s (%s)\n\nUsage: anchorctl <command> [flags] [args]\n\nCommands:\n", Version, GitCommit)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].usage)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stdout)
		return nil
	}
	if args[0] == "version" || args[0] == "--version" {
		fmt.Fprintf(stdout, "anchorctl %s (%s)\n", Version, GitCommit)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(stderr)
		return errors.Newf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		global globalFlags
		e      = env{out: stdout}
	)
	global.register(fs)
	if cmd.flags != nil {
		cmd.flags(fs, &e.opts)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := global.resolve(fs)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	log.SetLogger(logger)
	defer log.SetLogger(nil)

	e.cfg = cfg
	e.logger = logger.Named(args[0])
	e.logger.Debug("running command", zap.Strings("args", fs.Args()), zap.String("store", cfg.Store))
	return cmd.run(&e, fs.Args())
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "anchorctl: %v\n", err)
		os.Exit(1)
	}
}
