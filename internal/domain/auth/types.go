// Package auth contains domain-level types for the client session and the
// authentication payloads exchanged with the ARCO API.
// It is pure and free of transport/storage concerns.
package auth

import "maps"

// Role represents a user's permission class as reported by the API.
// Keep string form; it is persisted verbatim inside the stored profile.
type Role string

const (
	RoleAdmin     Role = "administrador"
	RoleCompany   Role = "empresa"
	RoleCandidate Role = "candidato"
)

// Known reports whether r is one of the closed set of role tags.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleCandidate:
		return true
	default:
		return false
	}
}

// Profile keys used by the API for the cached user record.
const (
	ProfileKeyID    = "id"
	ProfileKeyName  = "nombre"
	ProfileKeyEmail = "email"
	ProfileKeyRole  = "rol"

	// profileKeyRoleAlt is accepted when ProfileKeyRole is missing.
	profileKeyRoleAlt = "role"
)

// Profile is the cached user record returned by the API (the "usuario" object).
// It is kept as a generic JSON object so fields unknown to this client survive
// persistence and partial refreshes.
type Profile map[string]any

// Identifier returns the user identifier rendered as a string.
func (p Profile) Identifier() string { return p.str(ProfileKeyID) }

// DisplayName returns the user's display name.
func (p Profile) DisplayName() string { return p.str(ProfileKeyName) }

// Email returns the user's email address.
func (p Profile) Email() string { return p.str(ProfileKeyEmail) }

// Role returns the role tag stored in the profile, or "" when missing.
func (p Profile) Role() Role {
	if v, ok := p[ProfileKeyRole].(string); ok {
		return Role(v)
	}
	if v, ok := p[profileKeyRoleAlt].(string); ok {
		return Role(v)
	}
	return ""
}

// Clone returns a shallow copy of the profile.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Overlay returns a new profile with the fields of partial written over p.
// Fields absent from partial keep their old values.
func (p Profile) Overlay(partial Profile) Profile {
	out := make(Profile, len(p)+len(partial))
	maps.Copy(out, p)
	maps.Copy(out, partial)
	return out
}

func (p Profile) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return formatNumber(v)
	default:
		return ""
	}
}
