package cli

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/vcs"
)

const AppName = "taskforge"

// Options carries the collaborators and writers the CLI wires into each
// generation. Tests construct it explicitly; main fills it from the
// environment.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer

	// Client talks to the execution platform; nil is allowed for purely
	// local phases, and only the parameter-fetching forms, index-search
	// optimization, and the decision command require it.
	Client platform.Client

	// VCS answers changed-files and revision queries; nil disables the
	// default-env parameters form and --diff.
	VCS vcs.VCS
}

// NewApp builds the taskforge CLI: one subcommand per generation phase
// plus decision, sharing a common flag set.
func NewApp(opts *Options) *cli.App {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := cli.NewApp()
	app.Name = AppName
	app.Usage = "Generate, optimize, and submit CI task graphs."
	app.Writer = opts.Stdout
	app.ErrWriter = opts.Stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = commonFlags()
	app.Commands = []*cli.Command{
		phaseCommand(opts, "full", "Generate the full task graph.", phaseFull),
		phaseCommand(opts, "target", "Generate the target task set.", phaseTarget),
		phaseCommand(opts, "target-graph", "Generate the target task graph (targets plus dependencies).", phaseTargetGraph),
		phaseCommand(opts, "optimized", "Generate the optimized task graph.", phaseOptimized),
		phaseCommand(opts, "morphed", "Generate the morphed task graph.", phaseMorphed),
		decisionCommand(opts),
	}

	// Usage errors exit 2; generation failures exit 1.
	app.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		return cli.Exit(err.Error(), 2)
	}
	app.CommandNotFound = func(c *cli.Context, command string) {
		cli.HandleExitCoder(cli.Exit("no such command: "+command, 2))
	}

	return app
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "root",
			Value: ".",
			Usage: "directory containing config.yml and the kind directories",
		},
		&cli.StringSliceFlag{
			Name:  "parameters",
			Usage: "parameters source: a file or directory path, task-id=<id>, project=<p>, or index=<path>; repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "target-kind",
			Usage: "restrict the target task set to this kind; repeatable",
		},
		&cli.StringFlag{
			Name:  "tasks",
			Usage: "only show tasks whose label matches this regular expression",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print full task records as JSON instead of a label list",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-key",
			Usage: "dotted path to drop from every printed task record; repeatable",
		},
		&cli.StringFlag{
			Name:  "diff",
			Usage: "diff the generated graph against the one generated from this revspec",
		},
		&cli.BoolFlag{
			Name:  "fast",
			Usage: "skip slower validation (implies --no-verify)",
		},
		&cli.BoolFlag{
			Name:  "no-verify",
			Usage: "skip per-phase verification hooks",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Value: "artifacts",
			Usage: "directory phase artifacts are written to",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log verbosity: debug, info, warn, or error",
		},
	}
}

func phaseCommand(opts *Options, name, usage string, phase phaseFunc) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: commonFlags(),
		Action: func(c *cli.Context) error {
			return runPhase(c, opts, phase)
		},
	}
}

func decisionCommand(opts *Options) *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:  "root-task-id",
			Usage: "task-id of the decision task submitting this graph (defaults to $TASK_ID)",
		},
	)

	return &cli.Command{
		Name:  "decision",
		Usage: "Run the whole pipeline, write artifacts, and submit the graph.",
		Flags: flags,
		Action: func(c *cli.Context) error {
			return runDecision(c, opts)
		},
	}
}
