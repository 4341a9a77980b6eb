package entity

import "time"

// User represents an account row in the `users` table (or document in the
// `users` collection). PasswordHash only ever holds a bcrypt digest.
// CredentialVersion starts at 1 and is bumped on every password write; stores
// use it for compare-and-set updates and reset tokens fold it into their key.
type User struct {
	ID                string     `db:"id" bson:"_id"`
	Name              string     `db:"name" bson:"name"`
	Email             string     `db:"email" bson:"email"`
	PasswordHash      string     `db:"password_hash" bson:"password_hash"`
	CredentialVersion int64      `db:"credential_version" bson:"credential_version"`
	TermsAccepted     bool       `db:"terms_accepted" bson:"terms_accepted"`
	PasswordUpdatedAt *time.Time `db:"password_updated_at" bson:"password_updated_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" bson:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" bson:"updated_at"`
}

// PublicProfile is the projection returned to the logged-in user.
type PublicProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile strips credential fields from u.
func (u *User) Profile() *PublicProfile {
	return &PublicProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}
