package models

import "strings"

// Address is embedded by companies, facilities and tenants.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Complete reports whether every postal field is filled in.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.ZipCode) != ""
}

// ContactInfo is the reachable contact for a company, facility or tenant.
type ContactInfo struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// Complete requires at least one way of reaching the contact.
func (c ContactInfo) Complete() bool {
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.PhoneNumber) != ""
}
