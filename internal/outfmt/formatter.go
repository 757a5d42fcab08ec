package outfmt

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Formatter writes command results in the mode carried by its context.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer
}

// NewFormatter creates a new Formatter
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output filters data with the context query and renders it: through the
// context template when one is set, otherwise as JSON, JSON lines or YAML.
func (f *Formatter) Output(data any) error {
	filtered, err := ApplyQuery(data, GetQuery(f.ctx))
	if err != nil {
		return err
	}
	if tmpl := GetTemplate(f.ctx); tmpl != "" {
		if err := WriteTemplate(f.out, filtered, tmpl); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(f.out)
		return nil
	}

	switch ModeFromContext(f.ctx) {
	case JSON:
		return WriteJSONMaybeCompact(f.out, filtered, IsCompact(f.ctx))
	case JSONL:
		return WriteJSONLines(f.out, filtered)
	default:
		return WriteYAML(f.out, filtered)
	}
}

// WriteYAML renders a JSON-shaped value as YAML, the text-mode view of API
// responses whose shape the client does not know.
func WriteYAML(w io.Writer, v any) error {
	data, err := toJSONValue(v)
	if err != nil {
		return err
	}
	if s, ok := data.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	return enc.Close()
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) || GetTemplate(f.ctx) != "" {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			_, _ = fmt.Fprint(f.tabWriter, "\t")
		}
		_, _ = fmt.Fprint(f.tabWriter, col)
	}
	_, _ = fmt.Fprintln(f.tabWriter)
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
