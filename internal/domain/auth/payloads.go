package auth

import "strconv"

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CompanyRegistration is the nested company object sent when registering with RoleCompany.
type CompanyRegistration struct {
	Name     string `json:"nombre_empresa"      validate:"required"`
	TaxID    string `json:"nit"                 validate:"required"`
	Sector   string `json:"sector,omitempty"`
	Address  string `json:"direccion,omitempty"`
	Phone    string `json:"telefono,omitempty"`
	Website  string `json:"sitio_web,omitempty" validate:"omitempty,url"`
	Headline string `json:"descripcion,omitempty"`
}

// Registration is the body of POST /auth/registro.
type Registration struct {
	Name     string               `json:"nombre"             validate:"required"`
	Email    string               `json:"email"              validate:"required,email"`
	Password string               `json:"password"           validate:"required,min=6"`
	Phone    string               `json:"telefono,omitempty"`
	Role     Role                 `json:"rol"                validate:"required,oneof=administrador empresa candidato"`
	Company  *CompanyRegistration `json:"empresa,omitempty"  validate:"omitempty"`
}

// PasswordChange is the body of PUT /auth/cambiar-contraseña.
type PasswordChange struct {
	Current string `json:"contraseña_actual" validate:"required"`
	New     string `json:"nueva_contraseña"  validate:"required,min=6,nefield=Current"`
}

// PasswordResetRequest is the body of POST /auth/solicitar-recuperacion.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordReset is the body of POST /auth/restablecer-contraseña.
type PasswordReset struct {
	Token       string `json:"token"            validate:"required"`
	NewPassword string `json:"nueva_contraseña" validate:"required,min=6"`
}

// SessionGrant is the data section of a successful login, registration or reset envelope.
type SessionGrant struct {
	Token   string  `json:"token"`
	Profile Profile `json:"usuario"`
}

// Complete reports whether the grant carries both halves of a session.
func (g SessionGrant) Complete() bool {
	return g.Token != "" && g.Profile != nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
