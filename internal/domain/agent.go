package domain

import "strings"

// Agent models a support attendant tickets can be assigned to.
// The display name doubles as the agent identity.
type Agent struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Active   bool   `json:"active"`
}

// NewAgent builds an active agent, deriving initials from the name.
func NewAgent(name string) Agent {
	name = strings.TrimSpace(name)
	return Agent{Name: name, Initials: Initials(name), Active: true}
}

// Initials returns the first letter of the first and last words of name.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first := []rune(parts[0])
	out := string(first[0])
	if len(parts) > 1 {
		last := []rune(parts[len(parts)-1])
		out += string(last[0])
	}
	return strings.ToUpper(out)
}
