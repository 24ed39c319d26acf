package wire

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strings"
)

// The identity provider's account-list endpoint embeds its payload in a
// cross-frame postMessage call. The pattern is deliberately non-greedy to
// bound work against adversarially large responses.
var postMessagePattern = regexp.MustCompile(`postMessage\('(.*?)'\s*,\s*'https:`)

var escapeReplacer = strings.NewReplacer(
	`\x5b`, "[",
	`\x5d`, "]",
	`\x22`, `"`,
)

// ParseAccounts extracts the signed-in account list from the identity
// provider's response. Entries without a syntactically valid email are
// non-account profiles in the upstream data and are filtered out; Index is
// reassigned to the position within the filtered set because that index is
// the account selector for all subsequent calls. A malformed response
// parses to an empty list.
func ParseAccounts(raw string) []Account {
	match := postMessagePattern.FindStringSubmatch(raw)
	if match == nil {
		return []Account{}
	}

	var parsed []interface{}
	if err := json.Unmarshal([]byte(escapeReplacer.Replace(match[1])), &parsed); err != nil {
		return []Account{}
	}

	accounts := []Account{}
	for _, e := range asArray(at(parsed, 1)) {
		entry := asArray(e)
		email := asString(at(entry, 3))
		if !validEmail(email) {
			continue
		}
		accounts = append(accounts, Account{
			Name:      asString(at(entry, 2)),
			Email:     email,
			Avatar:    asString(at(entry, 4)),
			IsActive:  asBool(at(entry, 5)),
			IsDefault: asBool(at(entry, 6)),
			Index:     len(accounts),
		})
	}
	return accounts
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
