package main

import (
	"flag"
	"os"
	"strings"
	"time"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
)

type loginOptions struct {
	Email      string
	Password   string
	NoRedirect bool
	Output     outputOptions
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts loginOptions
	fs.StringVar(&opts.Email, "email", "", "Account email (required)")
	fs.StringVar(&opts.Password, "password", "", "Account password (defaults to $ARCO_PASSWORD)")
	fs.BoolVar(&opts.NoRedirect, "no-redirect", false, "Do not navigate to the dashboard after signing in")
	opts.Output.register(fs)

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	if opts.Password == "" {
		opts.Password = os.Getenv("ARCO_PASSWORD")
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if err := opts.Output.validate(); err != nil {
		return loginOptions{}, err
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	res, err := client.Auth.Login(cmdCtx.Ctx, domainauth.Credentials{Email: opts.Email, Password: opts.Password})
	if err != nil {
		return err
	}
	if printErr := printResult(cmdCtx.Stdout, sessionView(res.Profile, res.Destination, res.Message), opts.Output); printErr != nil {
		return printErr
	}
	if opts.NoRedirect {
		return nil
	}
	return client.Navigator.Navigate(cmdCtx.Ctx, res.Destination)
}

type registerOptions struct {
	Registration domainauth.Registration
	Company      domainauth.CompanyRegistration
	Role         string
	Output       outputOptions
}

func parseRegisterFlags(args []string) (registerOptions, error) {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts registerOptions
	reg := &opts.Registration
	fs.StringVar(&reg.Name, "name", "", "Full name (required)")
	fs.StringVar(&reg.Email, "email", "", "Account email (required)")
	fs.StringVar(&reg.Password, "password", "", "Account password (defaults to $ARCO_PASSWORD)")
	fs.StringVar(&reg.Phone, "phone", "", "Phone number")
	fs.StringVar(&opts.Role, "role", string(domainauth.RoleCandidate), "Role: administrador, empresa or candidato")
	fs.StringVar(&opts.Company.Name, "company-name", "", "Company name (empresa only)")
	fs.StringVar(&opts.Company.TaxID, "company-nit", "", "Company tax id (empresa only)")
	fs.StringVar(&opts.Company.Sector, "company-sector", "", "Company sector")
	fs.StringVar(&opts.Company.Address, "company-address", "", "Company address")
	fs.StringVar(&opts.Company.Phone, "company-phone", "", "Company phone")
	fs.StringVar(&opts.Company.Website, "company-website", "", "Company website URL")
	fs.StringVar(&opts.Company.Headline, "company-description", "", "Company description")
	opts.Output.register(fs)

	if err := fs.Parse(args); err != nil {
		return registerOptions{}, err
	}
	if reg.Password == "" {
		reg.Password = os.Getenv("ARCO_PASSWORD")
	}
	reg.Role = domainauth.Role(strings.TrimSpace(opts.Role))
	if reg.Role == domainauth.RoleCompany {
		company := opts.Company
		reg.Company = &company
	}
	if err := opts.Output.validate(); err != nil {
		return registerOptions{}, err
	}
	return opts, nil
}

func runRegister(cmdCtx *commandContext, args []string) error {
	opts, err := parseRegisterFlags(args)
	if err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	res, err := client.Auth.Register(cmdCtx.Ctx, opts.Registration)
	if err != nil {
		return err
	}
	return printResult(cmdCtx.Stdout, sessionView(res.Profile, res.Destination, res.Message), opts.Output)
}

func runLogout(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}
	if err := client.Auth.Logout(cmdCtx.Ctx); err != nil {
		return err
	}
	return client.Navigator.Navigate(cmdCtx.Ctx, cmdCtx.Config.Routes.Login)
}

type whoamiView struct {
	Authenticated bool               `json:"authenticated"`
	Role          domainauth.Role    `json:"role,omitempty"`
	Destination   string             `json:"destination,omitempty"`
	Subject       string             `json:"token_subject,omitempty"`
	ExpiresAt     *time.Time         `json:"token_expires_at,omitempty"`
	Expired       bool               `json:"token_expired,omitempty"`
	Profile       domainauth.Profile `json:"profile,omitempty"`
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var output outputOptions
	output.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := output.validate(); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	ctx := cmdCtx.Ctx
	view := whoamiView{Authenticated: client.Sessions.IsAuthenticated(ctx)}
	if view.Authenticated {
		view.Profile = client.Sessions.CurrentProfile(ctx)
		view.Role = view.Profile.Role()
		view.Destination = client.Sessions.RedirectTarget(ctx)
		token, _ := client.Sessions.Token(ctx)
		if info, ok := domainauth.InspectToken(token); ok {
			view.Subject = info.Subject
			if !info.ExpiresAt.IsZero() {
				exp := info.ExpiresAt
				view.ExpiresAt = &exp
				view.Expired = info.Expired(time.Now())
			}
		}
	}
	return printResult(cmdCtx.Stdout, view, output)
}

func runProfile(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		output outputOptions
		set    pairsFlag
	)
	output.register(fs)
	fs.Var(&set, "set", "Profile field to update as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := output.validate(); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	var profile domainauth.Profile
	if len(set) == 0 {
		profile, err = client.Auth.FetchProfile(cmdCtx.Ctx)
	} else {
		changes := domainauth.Profile{}
		set.each(func(key, value string) { changes[key] = value })
		profile, err = client.Auth.UpdateProfile(cmdCtx.Ctx, changes)
	}
	if err != nil {
		return err
	}
	return printResult(cmdCtx.Stdout, profile, output)
}

func runChangePassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var change domainauth.PasswordChange
	fs.StringVar(&change.Current, "current", "", "Current password (required)")
	fs.StringVar(&change.New, "new", "", "New password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	msg, err := client.Auth.ChangePassword(cmdCtx.Ctx, change)
	if err != nil {
		return err
	}
	return printMessage(cmdCtx, msg, "password changed")
}

func runResetRequest(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset-request", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var req domainauth.PasswordResetRequest
	fs.StringVar(&req.Email, "email", "", "Account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	msg, err := client.Auth.RequestPasswordReset(cmdCtx.Ctx, req)
	if err != nil {
		return err
	}
	return printMessage(cmdCtx, msg, "reset instructions sent")
}

func runReset(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var reset domainauth.PasswordReset
	fs.StringVar(&reset.Token, "token", "", "Reset token from the email (required)")
	fs.StringVar(&reset.NewPassword, "password", "", "New password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cmdCtx.Client()
	if err != nil {
		return err
	}

	msg, err := client.Auth.ResetPassword(cmdCtx.Ctx, reset)
	if err != nil {
		return err
	}
	return printMessage(cmdCtx, msg, "password reset")
}

func printMessage(cmdCtx *commandContext, msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return writeln(cmdCtx.Stdout, msg)
}

type sessionResult struct {
	Message     string             `json:"message,omitempty"`
	Destination string             `json:"destination,omitempty"`
	Profile     domainauth.Profile `json:"profile,omitempty"`
}

func sessionView(profile domainauth.Profile, destination, message string) sessionResult {
	return sessionResult{Message: message, Destination: destination, Profile: profile}
}
