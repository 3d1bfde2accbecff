package models

// User is the identity snapshot consumed by the token layer. Credential
// storage, password hashing and lockout counters live behind the
// repository.UserProvider interface and are out of scope here.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Active bool     `json:"active"`
	Roles  []string `json:"roles"`
}
