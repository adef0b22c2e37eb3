package models

import "time"

// Patient is the medical-side record created at registration. Login
// credentials live in the shared users table; UserID ties the two.
type Patient struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	BirthDate  string    `json:"birthDate"`
	Phone      string    `json:"phoneNumber"`
	Email      string    `json:"email,omitempty"`
	BloodGroup string    `json:"bloodGroup,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BloodGroups is the closed set the registration form offers.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// IsBloodGroup reports whether v is one of the selectable blood groups.
func IsBloodGroup(v string) bool {
	for _, g := range BloodGroups {
		if g == v {
			return true
		}
	}
	return false
}
