package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

type outputOptions struct {
	Query string
	Raw   bool
}

func (o *outputOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Query, "query", "", "JMESPath expression applied to the response envelope")
	fs.BoolVar(&o.Raw, "raw", false, "Print compact JSON; plain strings are printed without quotes")
}

func (o *outputOptions) validate() error {
	if o.Query == "" {
		return nil
	}
	if _, err := jmespath.Compile(o.Query); err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}
	return nil
}

// printResult writes v as JSON, filtered through the --query expression when set.
func printResult(w io.Writer, v any, opts outputOptions) error {
	data, err := toGeneric(v)
	if err != nil {
		return err
	}
	if opts.Query != "" {
		data, err = jmespath.Search(opts.Query, data)
		if err != nil {
			return fmt.Errorf("evaluate query: %w", err)
		}
	}

	if s, ok := data.(string); ok && opts.Raw {
		return writeln(w, s)
	}

	var out []byte
	if opts.Raw {
		out, err = json.Marshal(data)
	} else {
		out, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return writeln(w, string(out))
}

// toGeneric round-trips v through JSON so queries see maps and slices.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}

// pairsFlag collects repeated key=value flags in order.
type pairsFlag []string

func (p *pairsFlag) String() string { return strings.Join(*p, ",") }

func (p *pairsFlag) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*p = append(*p, v)
	return nil
}

func (p pairsFlag) each(fn func(key, value string)) {
	for _, kv := range p {
		key, value, _ := strings.Cut(kv, "=")
		fn(strings.TrimSpace(key), value)
	}
}

// readBody resolves --data: a literal JSON document, @file, or - for stdin.
// An empty value means no body.
func readBody(data string, stdin io.Reader) (json.RawMessage, error) {
	var raw []byte
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		if stdin == nil {
			return nil, errors.New("no stdin available for --data -")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}

	if !json.Valid(raw) {
		return nil, errors.New("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil
}
