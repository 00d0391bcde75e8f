package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	"github.com/arco-rh/arco-client/internal/domain/model"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/gateway"
	"github.com/arco-rh/arco-client/internal/service"
	"golang.org/x/sync/errgroup"
)

var errMissingArgument = errors.New("missing argument")

type verbOptions struct {
	Path    string
	Params  pairsFlag
	Data    string
	Form    pairsFlag
	Files   pairsFlag
	Headers pairsFlag
	Public  bool
	Output  outputOptions
}

func parseVerbFlags(verb string, args []string) (verbOptions, error) {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts verbOptions
	fs.Var(&opts.Params, "param", "Query parameter as key=value (repeatable, get only)")
	fs.StringVar(&opts.Data, "data", "", "JSON body: a literal document, @file, or - for stdin")
	fs.Var(&opts.Form, "form", "Multipart field as key=value (repeatable)")
	fs.Var(&opts.Files, "file", "Multipart file as field=path (repeatable)")
	fs.Var(&opts.Headers, "header", "Extra request header as name=value (repeatable)")
	fs.BoolVar(&opts.Public, "public", false, "Send without the stored token")
	opts.Output.register(fs)

	if err := fs.Parse(args); err != nil {
		return verbOptions{}, err
	}
	if fs.NArg() != 1 {
		return verbOptions{}, fmt.Errorf("%w: %s expects exactly one API path", errMissingArgument, verb)
	}
	opts.Path = fs.Arg(0)
	if opts.Data != "" && (len(opts.Form) > 0 || len(opts.Files) > 0) {
		return verbOptions{}, errors.New("--data cannot be combined with --form or --file")
	}
	if err := opts.Output.validate(); err != nil {
		return verbOptions{}, err
	}
	return opts, nil
}

func (o *verbOptions) callOptions() []gateway.CallOption {
	var opts []gateway.CallOption
	if o.Public {
		opts = append(opts, gateway.Public())
	}
	o.Headers.each(func(key, value string) {
		opts = append(opts, gateway.WithHeader(key, value))
	})
	return opts
}

func (o *verbOptions) queryParams() gateway.Params {
	var params gateway.Params
	o.Params.each(func(key, value string) {
		params = params.Add(key, value)
	})
	return params
}

// body builds the request body. The returned cleanup closes any opened files.
func (o *verbOptions) body(cmdCtx *commandContext) (any, func(), error) {
	noop := func() {}
	if len(o.Form) == 0 && len(o.Files) == 0 {
		raw, err := readBody(o.Data, cmdCtx.Stdin)
		if err != nil || raw == nil {
			return nil, noop, err
		}
		return raw, noop, nil
	}

	form := gateway.NewForm()
	o.Form.each(func(key, value string) { form.Field(key, value) })

	var opened []*os.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, kv := range o.Files {
		field, path, _ := strings.Cut(kv, "=")
		f, err := os.Open(path)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("open %s: %w", path, err)
		}
		opened = append(opened, f)
		form.File(strings.TrimSpace(field), filepath.Base(path), f)
	}
	return form, cleanup, nil
}

func verbCommand(verb string) commandFn {
	return func(cmdCtx *commandContext, args []string) error {
		opts, err := parseVerbFlags(verb, args)
		if err != nil {
			return err
		}
		client, err := cmdCtx.Client()
		if err != nil {
			return err
		}
		body, cleanup, err := opts.body(cmdCtx)
		if err != nil {
			return err
		}
		defer cleanup()

		gw := client.Gateway
		ctx := cmdCtx.Ctx
		callOpts := opts.callOptions()

		var env *model.Envelope
		switch verb {
		case "get":
			env, err = gw.Get(ctx, opts.Path, opts.queryParams(), callOpts...)
		case "post":
			env, err = gw.Post(ctx, opts.Path, body, callOpts...)
		case "put":
			env, err = gw.Put(ctx, opts.Path, body, callOpts...)
		case "patch":
			env, err = gw.Patch(ctx, opts.Path, body, callOpts...)
		case "delete":
			env, err = gw.Delete(ctx, opts.Path, callOpts...)
		default:
			return fmt.Errorf("unsupported verb %q", verb)
		}
		if err != nil {
			return err
		}
		return printResult(cmdCtx.Stdout, env, opts.Output)
	}
}

func runDownload(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var name string
	fs.StringVar(&name, "name", "", "File name to save as (defaults to the server's suggestion)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: download expects exactly one API path", errMissingArgument)
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	saved, err := client.Gateway.Download(cmdCtx.Ctx, fs.Arg(0), name)
	if err != nil {
		return err
	}
	return writeln(cmdCtx.Stdout, saved)
}

type fetchResult struct {
	Path     string          `json:"path"`
	Envelope *model.Envelope `json:"envelope,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func runFetch(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		output   outputOptions
		failFast bool
		limit    int
	)
	output.register(fs)
	fs.BoolVar(&failFast, "fail-fast", false, "Cancel the remaining requests on the first failure")
	fs.IntVar(&limit, "concurrency", 4, "Maximum requests in flight")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: fetch expects at least one API path", errMissingArgument)
	}
	if err := output.validate(); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	results, err := fetchAll(cmdCtx.Ctx, client.Gateway, fs.Args(), limit, failFast)
	if err != nil {
		return err
	}
	return printResult(cmdCtx.Stdout, results, output)
}

// fetchAll issues one GET per path concurrently. Results keep the order of paths.
// Without failFast every failure is reported in its result and the call succeeds.
func fetchAll(ctx context.Context, api service.APIClient, paths []string, limit int, failFast bool) ([]fetchResult, error) {
	results := make([]fetchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		g.Go(func() error {
			reqCtx := ctx
			if failFast {
				reqCtx = gctx
			}
			env, err := api.Get(reqCtx, path, nil)
			results[i] = fetchResult{Path: path, Envelope: env}
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) && appErr.Envelope != nil {
					results[i].Envelope = appErr.Envelope
				}
				results[i].Error = apperrors.Message(err)
				if failFast {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runResource(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("resource", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		output outputOptions
		params pairsFlag
		data   string
	)
	output.register(fs)
	fs.Var(&params, "param", "Query parameter for list as key=value (repeatable)")
	fs.StringVar(&data, "data", "", "JSON body for create, update and patch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := output.validate(); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: usage: resource <%s> <list|get|create|update|patch|delete> [id]",
			errMissingArgument, resourceNames())
	}
	res, ok := service.ParseResource(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown resource %q (valid: %s)", fs.Arg(0), resourceNames())
	}
	action, id := fs.Arg(1), fs.Arg(2)

	body, err := readBody(data, cmdCtx.Stdin)
	if err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	svc := client.Resources
	ctx := cmdCtx.Ctx
	var env *model.Envelope
	switch action {
	case "list":
		var q gateway.Params
		params.each(func(key, value string) { q = q.Add(key, value) })
		env, err = svc.List(ctx, res, q)
	case "get":
		env, err = svc.Get(ctx, res, id)
	case "create":
		env, err = svc.Create(ctx, res, bodyOrNil(body))
	case "update":
		env, err = svc.Update(ctx, res, id, bodyOrNil(body))
	case "patch":
		env, err = svc.Patch(ctx, res, id, bodyOrNil(body))
	case "delete":
		env, err = svc.Remove(ctx, res, id)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return err
	}
	return printResult(cmdCtx.Stdout, env, output)
}

func bodyOrNil(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return raw
}

func resourceNames() string {
	names := make([]string, 0, len(service.Resources))
	for _, r := range service.Resources {
		names = append(names, r.Name())
	}
	return strings.Join(names, "|")
}

func runGuard(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("guard", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		output outputOptions
		role   string
	)
	output.register(fs)
	fs.StringVar(&role, "role", "", "Role required by the page (mode role)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := output.validate(); err != nil {
		return err
	}
	mode := "auth"
	if fs.NArg() > 0 {
		mode = fs.Arg(0)
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	var decision service.Decision
	switch mode {
	case "auth":
		decision = client.Guard.RequireAuthenticated(cmdCtx.Ctx)
	case "role":
		if role == "" {
			return fmt.Errorf("%w: guard role needs --role", errMissingArgument)
		}
		decision = client.Guard.RequireRole(cmdCtx.Ctx, domainauth.Role(role))
	case "guest":
		decision = client.Guard.RedirectIfAuthenticated(cmdCtx.Ctx)
	default:
		return fmt.Errorf("unknown guard mode %q (valid: auth, role, guest)", mode)
	}
	return printResult(cmdCtx.Stdout, decisionView{
		Allowed:  decision.Allowed,
		Redirect: decision.Redirect,
		Reason:   decision.Reason,
	}, output)
}

type decisionView struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
