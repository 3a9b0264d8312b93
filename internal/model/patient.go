package model

import "time"

type Patient struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasContact reports whether the patient has a resolvable contact address
// for calendar invites.
func (p *Patient) HasContact() bool {
	return p != nil && p.Email != ""
}
