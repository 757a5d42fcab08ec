package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/config"
	"github.com/cognitivefashion/fashion-cli/internal/iocontext"
	"github.com/cognitivefashion/fashion-cli/internal/outfmt"
)

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if isJSON(cmd) {
			_ = printJSONErr(cmd, structuredError(err))
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// structuredError is the JSON error document printed for err.
func structuredError(err error) *api.StructuredError {
	if errors.Is(err, config.ErrNotConfigured) {
		return api.NewStructuredError(api.ErrUnauthorized, "not authenticated: run 'fashion auth login' or set FASHION_API_URL and FASHION_API_KEY")
	}
	return api.StructuredErrorFromError(err)
}

// printJSONErr writes a JSON value to stderr.
func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// printOutput renders any value in the selected output mode.
func printOutput(cmd *cobra.Command, v any) error {
	return newFormatter(cmd).Output(v)
}

// printResult renders an API response body. A non-2xx status is returned as
// an *api.APIError so the process exits non-zero; in JSON mode the body is
// still written to stdout for scripts.
func printResult(cmd *cobra.Command, res *api.Result) error {
	if res == nil {
		return nil
	}
	if !res.OK() {
		if isJSON(cmd) && res.Body != nil {
			if err := printOutput(cmd, res.Body); err != nil {
				return err
			}
		}
		return res.Err()
	}
	if res.Body == nil {
		if isJSON(cmd) {
			return printOutput(cmd, map[string]any{"status_code": res.StatusCode})
		}
		printAction(cmd, "Done", fmt.Sprintf("(HTTP %d)", res.StatusCode))
		return nil
	}
	return printOutput(cmd, res.Body)
}

func printAction(cmd *cobra.Command, action, detail string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	message := action
	if detail != "" {
		message += " " + detail
	}
	_, _ = fmt.Fprintln(ioStreams.Out, message)
}

// confirmAction asks before a destructive call. --yes skips the prompt;
// without a terminal the call is refused.
func confirmAction(cmd *cobra.Command, prompt string) (bool, error) {
	if flags.Yes {
		return true, nil
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	if !ioStreams.IsTerminal() {
		return false, fmt.Errorf("confirmation required: re-run with --yes")
	}

	_, _ = fmt.Fprintf(ioStreams.ErrOut, "%s [y/N]: ", prompt)
	response, err := bufio.NewReader(ioStreams.In).ReadString('\n')
	if err != nil && response == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true, nil
	default:
		_, _ = fmt.Fprintln(ioStreams.ErrOut, "Cancelled.")
		return false, nil
	}
}

// readJSONValue parses a --data style value: a JSON literal, "-" for stdin,
// or "@path" for a file.
func readJSONValue(cmd *cobra.Command, flagName, value string) (any, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("--%s is required", flagName)
	}

	var data []byte
	switch {
	case value == "-":
		raw, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		if err != nil {
			return nil, fmt.Errorf("failed to read --%s from stdin: %w", flagName, err)
		}
		data = raw
	case strings.HasPrefix(value, "@"):
		raw, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read --%s file: %w", flagName, err)
		}
		data = raw
	default:
		data = []byte(value)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("--%s is empty", flagName)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON in --%s: %w", flagName, err)
	}
	return v, nil
}

// splitCommaList splits a comma-separated flag value, dropping blanks.
func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// maskKey masks an API key for display, showing only first and last 4 characters
func maskKey(key string) string {
	if len(key) < 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// aliasBridgeSliceValue forwards pflag.SliceValue for slice flags.
type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers a hidden alias for an existing flag. Both flags share
// the same underlying Value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}

	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}
