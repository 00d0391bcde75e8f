package testutil

import (
	"encoding/json"

	"github.com/arco-rh/arco-client/internal/domain/auth"
	"github.com/arco-rh/arco-client/internal/domain/model"
)

// ProfileBuilder provides a fluent interface for building user profiles for testing.
type ProfileBuilder struct {
	p auth.Profile
}

// NewProfile creates a ProfileBuilder for a candidate with sensible defaults.
func NewProfile() *ProfileBuilder {
	return &ProfileBuilder{
		p: auth.Profile{
			auth.ProfileKeyID:    float64(1),
			auth.ProfileKeyName:  "Ana Torres",
			auth.ProfileKeyEmail: "ana@arco.test",
			auth.ProfileKeyRole:  string(auth.RoleCandidate),
		},
	}
}

// WithRole sets the role tag.
func (b *ProfileBuilder) WithRole(role auth.Role) *ProfileBuilder {
	b.p[auth.ProfileKeyRole] = string(role)
	return b
}

// WithoutRole removes the role tag.
func (b *ProfileBuilder) WithoutRole() *ProfileBuilder {
	delete(b.p, auth.ProfileKeyRole)
	return b
}

// WithName sets the display name.
func (b *ProfileBuilder) WithName(name string) *ProfileBuilder {
	b.p[auth.ProfileKeyName] = name
	return b
}

// WithEmail sets the email.
func (b *ProfileBuilder) WithEmail(email string) *ProfileBuilder {
	b.p[auth.ProfileKeyEmail] = email
	return b
}

// With sets an arbitrary attribute.
func (b *ProfileBuilder) With(key string, value any) *ProfileBuilder {
	b.p[key] = value
	return b
}

// Build returns a copy of the built profile.
func (b *ProfileBuilder) Build() auth.Profile {
	return b.p.Clone()
}

// JSON returns the profile serialized the way it is persisted.
func (b *ProfileBuilder) JSON() string {
	raw, err := json.Marshal(b.p)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// Envelope returns the JSON body of a response envelope wrapping data.
func Envelope(success bool, message string, data any) string {
	env := model.Envelope{Success: success, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			panic(err)
		}
		env.Data = raw
	}
	out, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	return string(out)
}
