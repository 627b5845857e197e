package models

type Permission struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type Role struct {
	ID          int64        `json:"id,omitempty"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// PermissionNames flattens the role permission list.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

type User struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	RoleName string     `json:"role_name,omitempty"`
	Role     *Role      `json:"role,omitempty"`
	Store    FlexString `json:"store"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	Role        Role       `json:"role"`
	Store       FlexString `json:"store"`
	Username    string     `json:"username,omitempty"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
	RoleName string `json:"role_name" validate:"required"`
	Store    string `json:"store" validate:"required"`
}

type UpdateUserRequest struct {
	Username    string   `json:"username" validate:"required"`
	RoleName    string   `json:"role_name" validate:"required"`
	Store       string   `json:"store"`
	Permissions []string `json:"permissions"`
}
