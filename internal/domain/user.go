package domain

import (
	"strings"
	"time"
)

type Account struct {
	ID                uint       `json:"id"`
	ExternalID        string     `json:"external_id"`
	Name              string     `json:"name"`
	Balance           Money      `json:"balance_cents"`
	TaxID             string     `json:"tax_id,omitempty"`
	PixKey            string     `json:"pix_key,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	City              string     `json:"city,omitempty"`
	State             string     `json:"state,omitempty"`
	ProfileComplete   bool       `json:"profile_complete"`
	GatewayCustomerID string     `json:"-"`
	Archived          bool       `json:"archived"`
	ArchivedAt        *time.Time `json:"archived_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type Profile struct {
	Name   string
	TaxID  string
	PixKey string
	Phone  string
	City   string
	State  string
}

// ApplyProfile copies non-empty profile fields and recomputes ProfileComplete.
func (a *Account) ApplyProfile(p Profile) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&a.Name, p.Name)
	set(&a.TaxID, p.TaxID)
	set(&a.PixKey, p.PixKey)
	set(&a.Phone, p.Phone)
	set(&a.City, p.City)
	set(&a.State, p.State)

	a.ProfileComplete = a.Name != "" && a.TaxID != "" && a.PixKey != "" && a.Phone != ""
}

func (a *Account) Archive(at time.Time) {
	if a.Archived {
		return
	}
	a.Archived = true
	a.ArchivedAt = &at
}

type PlayerStats struct {
	TotalBets  int     `json:"total_bets"`
	ActiveBets int     `json:"active_bets"`
	Wins       int     `json:"wins"`
	TotalSpent Money   `json:"total_spent_cents"`
	TotalWon   Money   `json:"total_won_cents"`
	Net        Money   `json:"net_cents"`
	WinRate    float64 `json:"win_rate"`
}

type Admin struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
