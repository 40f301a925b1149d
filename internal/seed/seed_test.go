package seed

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
)

const sample = `
super_admins:
  - email: Root@Example.com
    password: rootpassword
    first_name: Root
branches:
  - code: cb-01
    name: Central Bank
    kind: bank
    timezone: Africa/Nairobi
    settings:
      theme_color: "#0a7d3b"
      day_start_hour: 4
    roles:
      - name: teller
        permissions: [tickets:write, counters:read, tickets:write]
      - name: kiosk
        permissions: [tickets:issue]
    users:
      - email: teller@cb.example
        password: tellerpassword
        first_name: Tess
        last_name: Teller
        role: teller
    queues:
      - name: Cash
        prefix: a
        menu:
          - name: Deposit
          - name: Withdrawal
            sub_items: [Small, " Large "]
    counters:
      - name: Counter 1
        queue: cash
  - code: MH-01
    name: Mercy Hospital
    kind: hospital
    departments:
      - name: Triage
        prefix: T
        intake: true
      - name: Pharmacy
        prefix: P
        requires_payment: true
    counters:
      - name: Room 1
        department: Triage
`

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "branches:\n  - code: X\n    colour: red\n", "colour"},
		{"bad kind", "branches:\n  - code: X\n    name: X\n    kind: shop\n", "kind must be bank or hospital"},
		{"undefined role", "branches:\n  - code: X\n    name: X\n    kind: bank\n    users:\n      - {email: a@b.c, password: longenough, first_name: A, role: boss}\n", "role \"boss\" is not defined"},
		{"queue on hospital", "branches:\n  - code: X\n    name: X\n    kind: hospital\n    queues:\n      - {name: Cash, prefix: A}\n", "not queues"},
		{"two intakes", "branches:\n  - code: X\n    name: X\n    kind: hospital\n    departments:\n      - {name: A, prefix: A, intake: true}\n      - {name: B, prefix: B, intake: true}\n", "at most one intake"},
		{"shared prefix", "branches:\n  - code: X\n    name: X\n    kind: bank\n    queues:\n      - {name: Cash, prefix: A}\n      - {name: Loans, prefix: a}\n", "reuses prefix A of Cash"},
		{"bad prefix", "branches:\n  - code: X\n    name: X\n    kind: bank\n    queues:\n      - {name: Cash, prefix: A1}\n", "prefix of one to three letters"},
		{"counter without line", "branches:\n  - code: X\n    name: X\n    kind: bank\n    counters:\n      - {name: C1, queue: Nope}\n", "must name a queue"},
		{"duplicate email", "super_admins:\n  - {email: a@b.c, password: longenough, first_name: A}\n  - {email: A@B.C, password: longenough, first_name: B}\n", "already used"},
		{"short password", "super_admins:\n  - {email: a@b.c, password: short, first_name: A}\n", "at least 8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	s := NewSeeder(db, testutil.Logger(t))
	s.hashCost = bcrypt.MinCost

	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sum, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := map[string]int{"branch": 2, "setting": 2, "role": 2, "user": 2, "queue": 1, "department": 2, "counter": 2}
	for k, n := range want {
		if sum.Created[k] != n {
			t.Fatalf("created %s: expected %d, got %d (%s)", k, n, sum.Created[k], sum)
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	bank, err := s.branches.GetByCode(dbc, "CB-01")
	if err != nil || bank == nil {
		t.Fatalf("GetByCode: %v %v", bank, err)
	}
	if bank.Kind != types.KindBank || bank.Timezone != "Africa/Nairobi" {
		t.Fatalf("unexpected branch %+v", bank)
	}
	set, err := s.settings.GetByBranchID(dbc, bank.ID)
	if err != nil || set == nil {
		t.Fatalf("GetByBranchID: %v %v", set, err)
	}
	if set.ThemeColor != "#0a7d3b" || set.DayStartHour != 4 || set.DisplayName != "Central Bank" {
		t.Fatalf("unexpected settings %+v", set)
	}

	teller, err := s.roles.GetByName(dbc, bank.ID, "teller")
	if err != nil || teller == nil {
		t.Fatalf("GetByName: %v %v", teller, err)
	}
	if len(teller.Permissions) != 2 {
		t.Fatalf("expected duplicate permission dropped, got %v", teller.Permissions)
	}

	root, err := s.users.GetByEmail(dbc, "root@example.com")
	if err != nil || root == nil {
		t.Fatalf("GetByEmail: %v %v", root, err)
	}
	if !root.SuperAdmin || root.BranchID != nil {
		t.Fatalf("expected branchless super admin, got %+v", root)
	}
	u, err := s.users.GetByEmail(dbc, "teller@cb.example")
	if err != nil || u == nil {
		t.Fatalf("GetByEmail: %v %v", u, err)
	}
	if u.RoleID == nil || *u.RoleID != teller.ID {
		t.Fatalf("expected teller role, got %v", u.RoleID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("tellerpassword")); err != nil {
		t.Fatalf("password not hashed from seed: %v", err)
	}

	cash, err := s.queues.GetByName(dbc, bank.ID, "Cash")
	if err != nil || cash == nil {
		t.Fatalf("GetByName queue: %v %v", cash, err)
	}
	if cash.Prefix != "A" || !cash.ValidIssue("withdrawal", "large") || cash.ValidIssue("loan", "") {
		t.Fatalf("unexpected queue %+v", cash)
	}
	c1, err := s.counters.GetByName(dbc, bank.ID, "Counter 1")
	if err != nil || c1 == nil {
		t.Fatalf("GetByName counter: %v %v", c1, err)
	}
	if c1.QueueID == nil || *c1.QueueID != cash.ID || c1.DepartmentID != nil {
		t.Fatalf("counter not linked to queue: %+v", c1)
	}

	hosp, _ := s.branches.GetByCode(dbc, "MH-01")
	triage, err := s.departments.GetIntake(dbc, hosp.ID)
	if err != nil || triage == nil || triage.Name != "Triage" {
		t.Fatalf("GetIntake: %v %v", triage, err)
	}

	again, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	for k, n := range again.Created {
		if n != 0 {
			t.Fatalf("second run created %d %s", n, k)
		}
	}
	for k, n := range again.Updated {
		if n != 0 {
			t.Fatalf("second run updated %d %s", n, k)
		}
	}
}

func TestApplyUpdatesChangedRecords(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	s := NewSeeder(db, testutil.Logger(t))
	s.hashCost = bcrypt.MinCost

	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := s.Apply(ctx, f); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	f.Branches[0].Roles[0].Permissions = []string{"tickets:write", "dashboard:read"}
	f.Branches[0].Users[0].Password = "ignoredpassword"
	f.Branches[0].Users[0].Role = "kiosk"
	f.Branches[1].Departments[0].Intake = false
	f.Branches[1].Departments[1].Intake = true

	sum, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sum.Updated["role"] != 1 || sum.Updated["user"] != 1 || sum.Updated["department"] != 2 {
		t.Fatalf("unexpected summary %s", sum)
	}

	dbc := dbctx.Context{Ctx: ctx}
	u, _ := s.users.GetByEmail(dbc, "teller@cb.example")
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("tellerpassword")); err != nil {
		t.Fatalf("existing password must be kept: %v", err)
	}
	hosp, _ := s.branches.GetByCode(dbc, "MH-01")
	intake, err := s.departments.GetIntake(dbc, hosp.ID)
	if err != nil || intake == nil || intake.Name != "Pharmacy" {
		t.Fatalf("expected Pharmacy as intake, got %v %v", intake, err)
	}
}

func TestApplyRejectsKindChange(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	s := NewSeeder(db, testutil.Logger(t))
	s.hashCost = bcrypt.MinCost

	existing := testutil.SeedBranch(t, ctx, db, types.KindHospital)
	f := &File{Branches: []BranchSpec{{Code: existing.Code, Name: "Renamed", Kind: "bank"}}}
	if _, err := s.Apply(ctx, f); err == nil || !strings.Contains(err.Error(), "hospital branch") {
		t.Fatalf("expected kind mismatch error, got %v", err)
	}
	b, _ := s.branches.GetByCode(dbctx.Context{Ctx: ctx}, existing.Code)
	if b.Name != existing.Name {
		t.Fatalf("failed seed must not change the branch, got %q", b.Name)
	}
}
