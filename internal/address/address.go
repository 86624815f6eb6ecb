// Package address parses free-form address field values such as
// "Bob <bob@example.com>" into their components.
package address

import (
	"regexp"
	"strings"

	"github.com/felo/mailnorm/internal/sanitize"
)

// Address is the structured form of one address field value. Nil pointers
// mean the component is absent.
type Address struct {
	Full  string  `json:"full"`
	Email string  `json:"email"`
	Token *string `json:"token"`
	Host  *string `json:"host"`
	Name  *string `json:"name"`
}

var (
	bracketedPattern = regexp.MustCompile(`<([^<>\s@]+@[^<>\s@]+)>`)
	barePattern      = regexp.MustCompile(`(?:^|[\s<>])([^<>\s@]+@[^<>\s@]+)(?:$|[\s<>])`)
)

// Parse decomposes one raw address string. It never fails: input without an
// address yields an empty Email and nil Token and Host.
func Parse(raw string) Address {
	full := sanitize.Bytes(raw)
	addr := Address{Full: full}

	start, email := locate(full)
	if start < 0 {
		// best effort name from whatever precedes a bracket
		before, _, _ := strings.Cut(full, "<")
		addr.Name = nonEmpty(strings.TrimSpace(before))
		return addr
	}

	addr.Email = email
	addr.Name = nonEmpty(strings.TrimSpace(full[:start]))

	token, host, _ := strings.Cut(email, "@")
	addr.Token = &token
	addr.Host = &host

	return addr
}

// ParseList parses each raw value in order.
func ParseList(raw []string) []Address {
	list := make([]Address, 0, len(raw))
	for _, r := range raw {
		list = append(list, Parse(r))
	}
	return list
}

// locate returns the offset where the address starts in s and the bare
// address. A bracketed address wins over a bare one.
func locate(s string) (int, string) {
	if m := bracketedPattern.FindStringSubmatchIndex(s); m != nil {
		return m[0], s[m[2]:m[3]]
	}
	if m := barePattern.FindStringSubmatchIndex(s); m != nil {
		return m[2], s[m[2]:m[3]]
	}
	return -1, ""
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
