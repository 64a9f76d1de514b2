package main

import (
	"os"

	urfavecli "github.com/urfave/cli/v2"

	"github.com/taskforge-dev/taskforge/cli"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/vcs"
)

func main() {
	opts := &cli.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if rootURL := os.Getenv("TASKFORGE_ROOT_URL"); rootURL != "" {
		opts.Client = platform.NewHTTPClient(rootURL)
	}

	if repo, err := vcs.Open("."); err == nil {
		opts.VCS = repo
	}

	app := cli.NewApp(opts)

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(urfavecli.ExitCoder); ok {
			if msg := exitErr.Error(); msg != "" {
				os.Stderr.WriteString(msg + "\n")
			}

			os.Exit(exitErr.ExitCode())
		}

		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
