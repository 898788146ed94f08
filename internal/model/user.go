// Package model defines the domain records shared by the repository, service
// and handler layers. JSON shaping for the API lives in the handler package.
package model

import "time"

// User is a registered account. Username and Email are unique.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Bio          string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of a user as seen by a viewer. Following is
// always false for anonymous viewers.
type Profile struct {
	Username  string
	Bio       string
	Image     string
	Following bool
}

// ProfileOf builds the Profile of u with the given follow flag.
func ProfileOf(u *User, following bool) Profile {
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}
