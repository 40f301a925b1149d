package queueing

import (
	"testing"

	"gorm.io/datatypes"
)

func TestValidIssue(t *testing.T) {
	q := &Queue{Menu: datatypes.JSONSlice[MenuItem]{
		{Name: "Deposit", SubItems: []string{"Cash", "Cheque"}},
		{Name: "Enquiry"},
	}}
	cases := []struct {
		issue, sub string
		ok         bool
	}{
		{"Deposit", "Cash", true},
		{"deposit", "cheque", true},
		{"Deposit", "", false},
		{"Deposit", "Card", false},
		{"Enquiry", "", true},
		{"Enquiry", "Balance", false},
		{"Loan", "", false},
	}
	for _, tc := range cases {
		if got := q.ValidIssue(tc.issue, tc.sub); got != tc.ok {
			t.Errorf("%s/%s: want=%v got=%v", tc.issue, tc.sub, tc.ok, got)
		}
	}
	if !(&Queue{}).ValidIssue("anything", "") {
		t.Fatalf("empty menu must accept any issue")
	}
}

func TestNormalizePrefix(t *testing.T) {
	if got := NormalizePrefix(" ab "); got != "AB" {
		t.Fatalf("got %q", got)
	}
}
