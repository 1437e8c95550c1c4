package models

import (
	"fmt"
	"strings"
)

const (
	UnknownAuthor = "Unknown"
	UnknownYear   = "N/A"
)

// CoverSize selects the rendition returned by the covers API.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// PlaceholderCover is used when a course has no cover id.
const PlaceholderCover = "https://via.placeholder.com/150"

// Course is a catalog entry. Key uniquely identifies it (e.g. "/works/OL45804W").
type Course struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name,omitempty"`
	CoverID          int      `json:"cover_i,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
}

// PrimaryAuthor returns the first listed author or [UnknownAuthor].
func (c Course) PrimaryAuthor() string {
	if len(c.AuthorName) == 0 || c.AuthorName[0] == "" {
		return UnknownAuthor
	}
	return c.AuthorName[0]
}

// Authors joins every author name.
func (c Course) Authors() string {
	if len(c.AuthorName) == 0 {
		return UnknownAuthor
	}
	return strings.Join(c.AuthorName, ", ")
}

// Year returns the first publish year or [UnknownYear].
func (c Course) Year() string {
	if c.FirstPublishYear == 0 {
		return UnknownYear
	}
	return fmt.Sprintf("%d", c.FirstPublishYear)
}

// CoverURL builds the cover image URL under base, or [PlaceholderCover] when there is no cover.
func (c Course) CoverURL(base string, size CoverSize) string {
	return CoverURL(base, c.CoverID, size)
}

// CoverURL builds the image URL for a cover id.
func CoverURL(base string, id int, size CoverSize) string {
	if id <= 0 {
		return PlaceholderCover
	}
	if size == "" {
		size = CoverMedium
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", strings.TrimRight(base, "/"), id, size)
}

// CourseDetails is the full record fetched for a single course.
type CourseDetails struct {
	Key              string
	Title            string
	Description      string
	Covers           []int
	Subjects         []string
	FirstPublishDate string
}

// CoverID returns the first cover id, or 0.
func (d CourseDetails) CoverID() int {
	if len(d.Covers) == 0 {
		return 0
	}
	return d.Covers[0]
}

// Profile is the authenticated user's account.
type Profile struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Image     string `json:"image,omitempty"`
}

// FullName joins first and last name, falling back to the username.
func (p Profile) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate reports missing fields.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Credentials returns the login pair for a registration.
func (r Registration) Credentials() Credentials {
	return Credentials{Username: r.Username, Password: r.Password}
}

// Validate reports missing or malformed fields.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return fmt.Errorf("first name is required")
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("email is required")
	case !strings.Contains(r.Email, "@"):
		return fmt.Errorf("email %q is not valid", r.Email)
	}
	return r.Credentials().Validate()
}

// AuthToken is what the auth API issues on login or registration.
type AuthToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Username     string `json:"username"`
}
