package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// accountListBody mimics the identity provider's response: an HTML page
// whose script embeds the account list in a postMessage call with escaped
// brackets and quotes.
func accountListBody(payload string) string {
	return `<html><script>window.parent.postMessage('` + payload + `', 'https://www.google.com');</script></html>`
}

func TestParseAccounts(t *testing.T) {
	payload := `\x5b\x22gaia\x22,\x5b` +
		`\x5b0,1,\x22Alice\x22,\x22a@x.com\x22,\x22https://img/a\x22,true,false,7\x5d,` +
		`\x5b0,1,\x22Workspace\x22,null,null,false,false,9\x5d,` +
		`\x5b0,1,\x22Bob\x22,\x22b@x.com\x22,null,false,true,4\x5d` +
		`\x5d\x5d`

	got := ParseAccounts(accountListBody(payload))
	want := []Account{
		{Name: "Alice", Email: "a@x.com", Avatar: "https://img/a", IsActive: true, Index: 0},
		{Name: "Bob", Email: "b@x.com", IsDefault: true, Index: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAccounts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAccountsReindexesAfterFiltering(t *testing.T) {
	// Raw positions 0 and 2 hold the real accounts; the filtered result
	// must use positions within the filtered set, since those indices are
	// the account selectors for subsequent calls.
	payload := `\x5b\x22gaia\x22,\x5b` +
		`\x5b0,1,null,\x22a@x.com\x22\x5d,` +
		`\x5b0,1,null,null\x5d,` +
		`\x5b0,1,null,\x22b@x.com\x22\x5d` +
		`\x5d\x5d`

	got := ParseAccounts(accountListBody(payload))
	if len(got) != 2 {
		t.Fatalf("got %d accounts, want 2", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("indices = %d, %d; want 0, 1", got[0].Index, got[1].Index)
	}
	if got[0].Email != "a@x.com" || got[1].Email != "b@x.com" {
		t.Errorf("emails = %q, %q", got[0].Email, got[1].Email)
	}
}

func TestParseAccountsInvalidEmailFiltered(t *testing.T) {
	payload := `\x5b\x22gaia\x22,\x5b\x5b0,1,\x22X\x22,\x22not-an-email\x22\x5d\x5d\x5d`
	if got := ParseAccounts(accountListBody(payload)); len(got) != 0 {
		t.Errorf("entry with invalid email survived: %+v", got)
	}
}

func TestParseAccountsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"<html>no postMessage here</html>",
		accountListBody(`\x5bnot balanced`),
	} {
		got := ParseAccounts(raw)
		if len(got) != 0 {
			t.Errorf("ParseAccounts(%q) = %+v, want empty", raw, got)
		}
		if got == nil {
			t.Errorf("ParseAccounts(%q) returned nil, want empty slice", raw)
		}
	}
}
