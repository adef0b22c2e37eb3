package models

import "time"

// Doctor is the professional record created at registration. Accounts start
// unverified; an administrator flips IsVerified after reviewing the license.
type Doctor struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"-"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Specialty           string    `json:"specialty"`
	LicenseNumber       string    `json:"licenseNumber"`
	LicenseDocumentPath string    `json:"licenseDocumentPath"`
	PracticeCity        string    `json:"practiceCity"`
	Phone               string    `json:"phoneNumber,omitempty"`
	Email               string    `json:"email"`
	IsVerified          bool      `json:"isVerified"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Specialties is the closed set the registration form offers. "autre" covers
// anything not listed.
var Specialties = []string{
	"generaliste", "cardiologue", "dermatologue", "neurologue", "pediatre",
	"psychiatre", "gynecologue", "ophtalmologue", "orthopediste", "autre",
}

// PracticeCities is the closed set of selectable cities.
var PracticeCities = []string{
	"paris", "lyon", "marseille", "bordeaux", "lille",
	"toulouse", "nice", "nantes", "strasbourg", "autre",
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsSpecialty reports whether v is a selectable specialty.
func IsSpecialty(v string) bool { return contains(Specialties, v) }

// IsPracticeCity reports whether v is a selectable practice city.
func IsPracticeCity(v string) bool { return contains(PracticeCities, v) }
