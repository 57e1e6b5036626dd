package models

import "strconv"

// User represents an account row in the `users` table.
// ID is zero until the database assigns one on insert.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"password"`
}

// IDString returns the decimal form of the ID as transmitted on the wire.
func (u *User) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}

// ParseID parses a wire id. Only canonical base-10 integers are accepted.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
