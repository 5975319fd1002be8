package domain

import (
	"strings"

	"github.com/uptrace/bun"
)

type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"client_name,notnull" json:"clientName"`
	Phone string `bun:"phone,notnull,unique" json:"phone"`
}

// Matches reports whether the client name contains term (case-insensitive)
// or the phone number contains it verbatim.
func (c Client) Matches(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) ||
		strings.Contains(c.Phone, term)
}

func FilterClients(clients []Client, term string) []Client {
	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c.Matches(term) {
			out = append(out, c)
		}
	}
	return out
}

func FindClientByPhone(clients []Client, phone string) (Client, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Client{}, false
	}
	for _, c := range clients {
		if c.Phone == phone {
			return c, true
		}
	}
	return Client{}, false
}
