package transform

import (
	"fmt"

	"github.com/hashicorp/go-getter"
	shellwords "github.com/mattn/go-shellwords"
)

// Run is the built-in "run" transform: translates a stub's
// high-level `run:` stanza into a concrete command, environment, and
// fetches embedded in `task.payload`, dispatching to the `run-using`
// implementation named by `run.using`.
func Run() Func {
	return Map("run", func(cfg *Config, t Stub) (Stub, error) {
		run, ok := t["run"].(map[string]interface{})
		if !ok {
			return t, nil
		}

		using, _ := run["using"].(string)
		if using == "" {
			using = "bash-script"
		}

		fn, ok := RunUsingRegistry.Get(using)
		if !ok {
			return nil, fmt.Errorf("run: unknown run-using implementation %q", using)
		}

		payload, err := fn(cfg, run)
		if err != nil {
			return nil, err
		}

		def, _ := t["task"].(map[string]interface{})
		if def == nil {
			def = map[string]interface{}{}
		}

		def["payload"] = payload
		t["task"] = def

		return t, nil
	})
}

// runUsingBashScript is the built-in `run-using: bash-script` implementation:
// it runs the inline `run.command` as `bash -c <command>`, records the
// command split into words the way a POSIX shell would (mattn/go-shellwords)
// under `parsed`, and validates any `run.fetches` URLs.
func runUsingBashScript(_ *Config, run map[string]interface{}) (map[string]interface{}, error) {
	command, _ := run["command"].(string)

	parser := shellwords.NewParser()

	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("run-using bash-script: parsing command: %w", err)
	}

	fetches, err := validateFetches(run["fetches"])
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"argv":    []string{"bash", "-c", command},
		"parsed":  argv,
		"env":     stringMapOf(run["env"]),
		"fetches": fetches,
	}, nil
}

// runUsingRunTask is the built-in `run-using: run-task` implementation: it
// forwards to the in-task bootstrap script's own `run-task` invocation
// convention, so
// the core only needs to shape its arguments correctly.
func runUsingRunTask(_ *Config, run map[string]interface{}) (map[string]interface{}, error) {
	fetches, err := validateFetches(run["fetches"])
	if err != nil {
		return nil, err
	}

	command, _ := run["command"].([]interface{})

	argv := make([]string, 0, len(command)+1)
	argv = append(argv, "run-task")

	for _, c := range command {
		if s, ok := c.(string); ok {
			argv = append(argv, s)
		}
	}

	return map[string]interface{}{
		"argv":    argv,
		"env":     stringMapOf(run["env"]),
		"fetches": fetches,
	}, nil
}

// validateFetches checks every fetch descriptor's URL parses as a
// go-getter source string, without performing the fetch itself.
func validateFetches(v interface{}) ([]interface{}, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}

	for _, f := range list {
		m, ok := f.(map[string]interface{})
		if !ok {
			continue
		}

		url, _ := m["artifact"].(string)
		if url == "" {
			continue
		}

		if _, err := getter.Detect(url, "", getter.Detectors); err != nil {
			return nil, fmt.Errorf("run: fetches entry has an invalid URL %q: %w", url, err)
		}
	}

	return list, nil
}

func stringMapOf(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprintf("%v", val)
	}

	return out
}
