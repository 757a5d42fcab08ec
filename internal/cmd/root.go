package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/config"
	"github.com/cognitivefashion/fashion-cli/internal/debug"
	"github.com/cognitivefashion/fashion-cli/internal/iocontext"
	"github.com/cognitivefashion/fashion-cli/internal/outfmt"
	"github.com/cognitivefashion/fashion-cli/internal/resolve"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output     string
	JSON       bool
	Query      string
	Template   string
	Compact    bool
	Debug      bool
	Quiet      bool
	Silent     bool
	Yes        bool
	Timeout    time.Duration
	Profile    string
	EnvFile    string
	BaseURL    string
	APIKey     string
	APIVersion string
	OptOut     bool

	OptOutSet bool
}

// flags holds the global command flags. It is package-level state and is
// reset at the start of every Execute call.
var flags = newRootFlags()

// runtimeEnv holds the FASHION_* environment read after .env files are
// loaded. Reset with flags.
var runtimeEnv config.Env

func newRootFlags() rootFlags {
	return rootFlags{
		Output:  "text",
		Timeout: api.DefaultTimeout,
	}
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	flags = newRootFlags()
	runtimeEnv = config.Env{}

	root := &cobra.Command{
		Use:                "fashion",
		Short:              "CLI for the Cognitive Fashion API",
		Long:               "Manage fashion catalogs and run visual search, natural language search and complete-the-look queries against the Cognitive Fashion API.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // did-you-mean comes from enhanceUnknownError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := config.LoadDotEnv(flags.EnvFile); err != nil {
				return err
			}
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			runtimeEnv = env

			if !flagOrAliasChanged(cmd, "output") && strings.TrimSpace(env.Output) != "" {
				flags.Output = env.Output
			}
			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && strings.TrimSpace(flags.Output) != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(strings.ToLower(strings.TrimSpace(flags.Output)))
			if err != nil {
				return err
			}
			if (flags.Query != "" || flags.Template != "") && mode == outfmt.Text {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--query/--template cannot be used with --output text")
				}
				mode = outfmt.JSON
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			if flags.Query != "" {
				if err := outfmt.ValidateQuery(flags.Query); err != nil {
					return err
				}
				ctx = outfmt.WithQuery(ctx, flags.Query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				if err := outfmt.ValidateTemplate(tmpl); err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}
			if flags.APIVersion != "" {
				if err := config.ValidateAPIVersion(flags.APIVersion); err != nil {
					return err
				}
			}
			flags.OptOutSet = flagOrAliasChanged(cmd, "opt-out")

			// Streams come from the caller's context so tests can inject them.
			base := iocontext.GetIO(ctx)
			ioStreams := &iocontext.IO{Out: base.Out, ErrOut: base.ErrOut, In: base.In}
			if flags.Silent || flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			if flags.Quiet && mode == outfmt.Text {
				ioStreams.Out = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(ioStreams.ErrOut, flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	streams := iocontext.GetIO(ctx)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl (env FASHION_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Log every HTTP request to stderr")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.StringVar(&flags.Profile, "profile", "", "Credentials profile to use (env FASHION_PROFILE)")
	pf.StringVar(&flags.EnvFile, "env-file", "", "Load FASHION_* variables from a .env file")
	pf.StringVar(&flags.BaseURL, "base-url", "", "API gateway URL (env FASHION_API_URL)")
	pf.StringVar(&flags.APIKey, "api-key", "", "API key (env FASHION_API_KEY)")
	pf.StringVar(&flags.APIVersion, "api-version", "", "API version path segment, e.g. v1 (env FASHION_API_VERSION)")
	pf.BoolVar(&flags.OptOut, "opt-out", false, "Ask the service not to keep request data (env FASHION_DATA_COLLECTION_OPT_OUT)")

	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "profile", "pf")
	flagAlias(pf, "query", "jq")

	root.AddCommand(newQuoteCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newVisualCmd())
	root.AddCommand(newNLSCmd())
	root.AddCommand(newLookCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := resolve.Closest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			seen := make(map[string]bool)
			var names []string
			add := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden || seen[f.Name] {
						return
					}
					seen[f.Name] = true
					names = append(names, "--"+f.Name)
				})
			}
			helpCmd := "fashion --help"
			if targetCmd != nil {
				add(targetCmd.Flags())
				add(targetCmd.InheritedFlags())
				helpCmd = targetCmd.CommandPath() + " --help"
			} else {
				add(root.PersistentFlags())
			}
			if suggestion := resolve.Closest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a long flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		return ""
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimRight(rest, ".,;:!?\"'")
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
