package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sqlreflow/internal/config"
	"sqlreflow/internal/diag"
	"sqlreflow/internal/driver"
	"sqlreflow/internal/observ"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/source"
	"sqlreflow/internal/trace"
)

// session holds what every file-processing command resolves from the root
// flags before touching files.
type session struct {
	fileSet *source.FileSet
	run     driver.RunOptions
	ring    *trace.RingTracer
	timer   *observ.Timer
	ui      uiMode
	exclude []string
	color   bool
	quiet   bool
	cleanup func()
}

func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, err
	}
	useColor, err := resolveColor(colorFlag)
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, err
	}
	ruleIDs, err := flags.GetStringSlice("rules")
	if err != nil {
		return nil, err
	}
	rules, err := parseRules(ruleIDs)
	if err != nil {
		return nil, err
	}
	exclude, err := flags.GetStringSlice("exclude")
	if err != nil {
		return nil, err
	}
	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return nil, err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return nil, err
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, err
	}
	var timer *observ.Timer
	if timings {
		timer = observ.NewTimer()
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	tracer, ring, cleanup, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cleanup()
		return nil, err
	}
	fileSet := source.NewFileSet()
	fileSet.SetBaseDir(cwd)

	return &session{
		fileSet: fileSet,
		run: driver.RunOptions{
			Options: driver.Options{
				Config:         cfg,
				MaxDiagnostics: maxDiagnostics,
				Rules:          rules,
				Tracer:         tracer,
				Timer:          timer,
			},
			Jobs: jobs,
		},
		ring:    ring,
		timer:   timer,
		ui:      mode,
		exclude: exclude,
		color:   useColor,
		quiet:   quiet,
		cleanup: cleanup,
	}, nil
}

// resolveColor turns the --color flag into a decision and applies it to the
// global fatih/color switch as well.
func resolveColor(flag string) (bool, error) {
	var on bool
	switch strings.ToLower(flag) {
	case "on", "always":
		on = true
	case "off", "never":
		on = false
	case "auto", "":
		on = isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", flag)
	}
	color.NoColor = !on
	return on, nil
}

func parseRules(ids []string) ([]diag.Code, error) {
	var out []diag.Code
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		code, ok := diag.ParseCode(id)
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		out = append(out, code)
	}
	return out, nil
}

// loadConfig reads an explicit configuration file, or the nearest one above
// the working directory.
func loadConfig(path string) (*reflow.Config, error) {
	if path != "" {
		return config.LoadFile(path, reflow.DefaultConfig())
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.Resolve(cwd)
	return cfg, err
}

// dumpOnInvariant writes the trace ring to w when any diagnostic reports an
// internal failure.
func (s *session) dumpOnInvariant(w io.Writer, bags ...*diag.Bag) {
	if s.ring == nil {
		return
	}
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		for _, d := range bag.Items() {
			if d.Code == diag.InternalInvariant {
				fmt.Fprintln(w, "--- trace ring ---")
				if err := s.ring.Dump(w, trace.FormatText); err != nil {
					fmt.Fprintf(w, "trace: dump error: %v\n", err)
				}
				return
			}
		}
	}
}

// printTimings writes the phase table when --timings is set.
func (s *session) printTimings(w io.Writer) {
	if s.timer != nil {
		fmt.Fprint(w, s.timer.Summary())
	}
}

// exitFor maps the diagnostics of a run to an exit status.
func exitFor(bags ...*diag.Bag) error {
	code := 0
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		if bag.HasErrors() {
			return &exitError{code: exitFailure}
		}
		if bag.Len() > 0 {
			code = exitFindings
		}
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}
