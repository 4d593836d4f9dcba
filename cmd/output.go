package cmd

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// printMarkdown renders markdown for the terminal, falling back to the raw
// markdown if it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var rendered string
		if rendered, err = r.Render(md); err == nil {
			fmt.Fprint(out, rendered)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Warning: cannot render markdown: %v\n", err)
	fmt.Fprint(out, md)
}

// markdownToHTML converts a markdown report to a HTML fragment.
func markdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// query evaluates a JSONPath expression over the JSON form of v.
func query(path string, v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return nil, err
	}
	return jsonpath.Get(path, jobj)
}

// reportFlags are the output options of the reporting commands.
type reportFlags struct {
	html  bool
	json  bool
	plain bool
	query string
}

func (o *reportFlags) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&o.html, "html", false, "Print the report as HTML.")
	f.BoolVar(&o.json, "json", false, "Print the report as JSON.")
	f.BoolVar(&o.plain, "plain", false, "Print the raw markdown without terminal styling.")
	f.StringVar(&o.query, "q", "", "Print the result of a JSONPath query over the JSON report, e.g. '$.cash'.")
}

// print writes the report, whose markdown form is md and whose data is v.
func (o *reportFlags) print(md string, v any) error {
	switch {
	case o.query != "":
		res, err := query(o.query, v)
		if err != nil {
			return fmt.Errorf("invalid query %q: %w", o.query, err)
		}
		return printJSON(res)
	case o.json:
		return printJSON(v)
	case o.html:
		html, err := markdownToHTML(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, html)
	case o.plain:
		fmt.Fprint(out, md)
	default:
		printMarkdown(md)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
