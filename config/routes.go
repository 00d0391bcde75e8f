package config

import "strings"

// RoutesConfig holds the navigation destinations used after login, on session
// expiry, and when a page guard denies access.
type RoutesConfig struct {
	Login     string `env:"LOGIN"     envDefault:"/login.html"`
	Home      string `env:"HOME"      envDefault:"/index.html"`
	Admin     string `env:"ADMIN"     envDefault:"/admin/dashboard.html"`
	Company   string `env:"COMPANY"   envDefault:"/empresa/dashboard.html"`
	Candidate string `env:"CANDIDATE" envDefault:"/candidato/dashboard.html"`
}

// Sanitize trims every destination and restores the login and home defaults when empty.
func (c *RoutesConfig) Sanitize() {
	c.Login = strings.TrimSpace(c.Login)
	c.Home = strings.TrimSpace(c.Home)
	c.Admin = strings.TrimSpace(c.Admin)
	c.Company = strings.TrimSpace(c.Company)
	c.Candidate = strings.TrimSpace(c.Candidate)
	if c.Login == "" {
		c.Login = "/login.html"
	}
	if c.Home == "" {
		c.Home = "/index.html"
	}
}
