package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/expand"
	"github.com/Heliodex/macrame/parse"
)

// stdinName is the file reported in diagnostics and markers for input
// read from standard input.
const stdinName = "<stdin>"

type predefOp int

const (
	opDefine predefOp = iota
	opUndefine
)

// predef is one -D or -U flag.
type predef struct {
	op   predefOp
	text string
}

// predefFlag collects -D and -U values into a single list, keeping the
// order they were written in. A later -U undoes an earlier -D of the
// same name, and the other way round.
type predefFlag struct {
	list *[]predef
	op   predefOp
}

func (f *predefFlag) Set(value string) error {
	*f.list = append(*f.list, predef{f.op, value})
	return nil
}

func (f *predefFlag) String() string { return "" }

func newApp() *cli.App {
	var predefs []predef

	app := cli.NewApp()
	app.Name = "macrame"
	app.Usage = "Expand macros in text files"
	app.ArgsUsage = "[FILE...]"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the result to this file instead of standard output",
		},
		&cli.GenericFlag{
			Name:    "define",
			Aliases: []string{"D"},
			Usage:   "Define NAME, NAME=VALUE or \"NAME VALUE\" before processing",
			Value:   &predefFlag{&predefs, opDefine},
		},
		&cli.GenericFlag{
			Name:    "undef",
			Aliases: []string{"U"},
			Usage:   "Undefine NAME before processing",
			Value:   &predefFlag{&predefs, opUndefine},
		},
		&cli.StringSliceFlag{
			Name:    "include",
			Aliases: []string{"I"},
			Usage:   "Add a directory to the #include search path",
		},
		&cli.BoolFlag{
			Name:    "no-lines",
			Aliases: []string{"n"},
			Usage:   "Suppress generated line markers",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Keep running and re-process whenever a source changes",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   defaultConfig,
			Usage:   "Read settings from this file",
		},
	}

	app.Action = func(c *cli.Context) error {
		return run(c, predefs)
	}
	return app
}

// options are the settings of one run, config file and flags merged.
// Flags append to the list settings and override the scalar ones.
type options struct {
	inputs   []string
	includes []string
	predefs  []predef
	output   string
	lines    bool
	watch    bool
	config   string // path the config was loaded from, "" if none
}

func resolve(c *cli.Context, cliPredefs []predef) (opts options, err error) {
	path := c.String("config")
	cfg, found, err := loadConfig(path, c.IsSet("config"))
	if err != nil {
		return options{}, err
	}
	if found {
		opts.config = path
	}

	for _, d := range cfg.Define {
		opts.predefs = append(opts.predefs, predef{opDefine, d})
	}
	for _, u := range cfg.Undef {
		opts.predefs = append(opts.predefs, predef{opUndefine, u})
	}
	opts.predefs = append(opts.predefs, cliPredefs...)

	opts.includes = append(cfg.Include, c.StringSlice("include")...)

	opts.output = cfg.Output
	if c.IsSet("output") {
		opts.output = c.String("output")
	}

	opts.lines = cfg.Lines == nil || *cfg.Lines
	if c.Bool("no-lines") {
		opts.lines = false
	}

	opts.watch = c.Bool("watch")

	opts.inputs = c.Args().Slice()
	if len(opts.inputs) == 0 {
		opts.inputs = []string{"-"}
	}
	return opts, nil
}

func run(c *cli.Context, cliPredefs []predef) error {
	opts, err := resolve(c, cliPredefs)
	if err != nil {
		return err
	}
	if opts.watch {
		if opts.output == "" {
			return errors.New("watch mode needs an output file, pass -o or set output in the config")
		}
		if slices.Contains(opts.inputs, "-") {
			return errors.New("watch mode cannot re-read standard input, pass input files")
		}
	}

	j := newJob(opts)
	text, err := j.run()
	if err == nil {
		err = write(opts.output, text)
	}
	if !opts.watch {
		return err
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return watchLoop(c, cliPredefs, j, opts)
}

// job is one assembled preprocessing run. The loader outlives run calls
// so its parse cache carries over between watch rounds.
type job struct {
	inputs  []string
	predefs []predef
	lines   bool
	loader  *expand.FileLoader
	warn    io.Writer
	stdin   io.Reader
}

func newJob(opts options) *job {
	return &job{
		inputs:  opts.inputs,
		predefs: opts.predefs,
		lines:   opts.lines,
		loader:  expand.NewFileLoader(opts.includes),
		warn:    os.Stderr,
		stdin:   os.Stdin,
	}
}

// run parses the predefines and inputs and expands them into one
// buffer under one environment, left to right, so definitions made in
// an earlier file are visible in later ones.
func (j *job) run() (string, error) {
	srcs, err := j.sources()
	if err != nil {
		return "", err
	}

	e := &expand.Engine{Out: expand.NewOutput(j.lines), Loader: j.loader, Warn: j.warn}
	if _, err := e.Run(expand.Env{}, srcs...); err != nil {
		return "", err
	}
	return e.Out.String(), nil
}

func (j *job) sources() ([]expand.Source, error) {
	srcs := make([]expand.Source, 0, len(j.predefs)+len(j.inputs))

	for _, p := range j.predefs {
		var nodes []ast.Node
		var err error
		if p.op == opUndefine {
			nodes, err = parse.Undefine(p.text)
		} else {
			nodes, err = parse.Predefine(p.text)
		}
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, expand.Source{Path: parse.CommandLine, Nodes: nodes})
	}

	for _, in := range j.inputs {
		path, data, err := j.read(in)
		if err != nil {
			return nil, err
		}
		nodes, err := parse.Source(path, data)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, expand.Source{Path: path, Nodes: nodes})
	}
	return srcs, nil
}

func (j *job) read(in string) (string, []byte, error) {
	if in == "-" {
		data, err := io.ReadAll(j.stdin)
		if err != nil {
			return "", nil, fmt.Errorf("error reading standard input: %w", err)
		}
		return stdinName, data, nil
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", nil, fmt.Errorf("error reading %s: %w", in, err)
	}
	return in, data, nil
}

// watched is every path whose change should trigger a re-run: the
// inputs, everything the loader touched, and the config file.
func (j *job) watched(configPath string) []string {
	paths := j.loader.Touched()
	for _, in := range j.inputs {
		if in != "-" {
			paths = append(paths, in)
		}
	}
	if configPath != "" {
		paths = append(paths, configPath)
	}
	return paths
}

// write puts the finished text in the output file, or on standard
// output when none is set.
func write(output, text string) error {
	if output == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", output, err)
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
