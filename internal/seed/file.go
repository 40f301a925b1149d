package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	"github.com/yungbote/queueflow-backend/internal/domain/queueing"
)

// File is the root of a seed document.
type File struct {
	SuperAdmins []UserSpec   `yaml:"super_admins"`
	Branches    []BranchSpec `yaml:"branches"`
}

type BranchSpec struct {
	Code        string           `yaml:"code"`
	Name        string           `yaml:"name"`
	Kind        string           `yaml:"kind"`
	Address     string           `yaml:"address"`
	Phone       string           `yaml:"phone"`
	Timezone    string           `yaml:"timezone"`
	Settings    *SettingSpec     `yaml:"settings"`
	Roles       []RoleSpec       `yaml:"roles"`
	Users       []UserSpec       `yaml:"users"`
	Queues      []QueueSpec      `yaml:"queues"`
	Departments []DepartmentSpec `yaml:"departments"`
	Counters    []CounterSpec    `yaml:"counters"`
}

// SettingSpec fields left unset keep the stored value.
type SettingSpec struct {
	DisplayName       *string `yaml:"display_name"`
	TicketHeader      *string `yaml:"ticket_header"`
	TicketFooter      *string `yaml:"ticket_footer"`
	ThemeColor        *string `yaml:"theme_color"`
	BoardWaitingRows  *int    `yaml:"board_waiting_rows"`
	DayStartHour      *int    `yaml:"day_start_hour"`
	ShowCustomerNames *bool   `yaml:"show_customer_names"`
}

type RoleSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

// UserSpec is a staff member. Role names a role of the same branch and is
// ignored for super admins. Password is only used when the user is created.
type UserSpec struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone"`
	Role      string `yaml:"role"`
}

type MenuSpec struct {
	Name     string   `yaml:"name"`
	SubItems []string `yaml:"sub_items"`
}

type QueueSpec struct {
	Name        string     `yaml:"name"`
	Prefix      string     `yaml:"prefix"`
	Description string     `yaml:"description"`
	Menu        []MenuSpec `yaml:"menu"`
}

type DepartmentSpec struct {
	Name            string `yaml:"name"`
	Prefix          string `yaml:"prefix"`
	Description     string `yaml:"description"`
	Intake          bool   `yaml:"intake"`
	RequiresPayment bool   `yaml:"requires_payment"`
}

// CounterSpec names its line: Queue for banks, Department for hospitals.
type CounterSpec struct {
	Name       string `yaml:"name"`
	Queue      string `yaml:"queue"`
	Department string `yaml:"department"`
}

// Load reads a seed file, expanding ${VAR} references from the environment.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(strings.NewReader(os.ExpandEnv(string(raw))))
}

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	var errs []error
	emails := map[string]string{}
	claim := func(where, email string) {
		key := strings.ToLower(strings.TrimSpace(email))
		if prev, ok := emails[key]; ok {
			errs = append(errs, fmt.Errorf("%s: email %q already used by %s", where, email, prev))
			return
		}
		emails[key] = where
	}
	for i, u := range f.SuperAdmins {
		where := fmt.Sprintf("super_admins[%d]", i)
		errs = append(errs, u.validate(where)...)
		claim(where, u.Email)
	}

	codes := map[string]bool{}
	for i := range f.Branches {
		b := &f.Branches[i]
		where := fmt.Sprintf("branches[%d]", i)
		if b.Code != "" {
			where = "branch " + b.Code
		}
		code := strings.ToUpper(strings.TrimSpace(b.Code))
		switch {
		case code == "":
			errs = append(errs, fmt.Errorf("%s: code is required", where))
		case codes[code]:
			errs = append(errs, fmt.Errorf("%s: duplicate code", where))
		}
		codes[code] = true
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}
		kind := types.BranchKind(strings.ToLower(strings.TrimSpace(b.Kind)))
		if !kind.Valid() {
			errs = append(errs, fmt.Errorf("%s: kind must be bank or hospital, got %q", where, b.Kind))
		}
		if tz := strings.TrimSpace(b.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				errs = append(errs, fmt.Errorf("%s: unknown timezone %q", where, tz))
			}
		}
		if s := b.Settings; s != nil {
			if s.DayStartHour != nil && (*s.DayStartHour < 0 || *s.DayStartHour > 23) {
				errs = append(errs, fmt.Errorf("%s: day_start_hour must be between 0 and 23", where))
			}
			if s.BoardWaitingRows != nil && *s.BoardWaitingRows < 1 {
				errs = append(errs, fmt.Errorf("%s: board_waiting_rows must be positive", where))
			}
		}

		roles := map[string]bool{}
		for _, r := range b.Roles {
			name := strings.TrimSpace(r.Name)
			if name == "" {
				errs = append(errs, fmt.Errorf("%s: role name is required", where))
				continue
			}
			if roles[strings.ToLower(name)] {
				errs = append(errs, fmt.Errorf("%s: duplicate role %q", where, name))
			}
			roles[strings.ToLower(name)] = true
			for _, p := range r.Permissions {
				if _, ok := identity.ParsePermission(p); !ok {
					errs = append(errs, fmt.Errorf("%s: role %q has invalid permission %q", where, name, p))
				}
			}
		}
		for j, u := range b.Users {
			uw := fmt.Sprintf("%s users[%d]", where, j)
			errs = append(errs, u.validate(uw)...)
			claim(uw, u.Email)
			if r := strings.TrimSpace(u.Role); r != "" && !roles[strings.ToLower(r)] {
				errs = append(errs, fmt.Errorf("%s: role %q is not defined for the branch", uw, u.Role))
			}
		}

		queues := map[string]bool{}
		prefixes := map[string]string{}
		for _, q := range b.Queues {
			if kind == types.KindHospital {
				errs = append(errs, fmt.Errorf("%s: hospital branches have departments, not queues", where))
				break
			}
			errs = append(errs, lineErrors(where, "queue", q.Name, q.Prefix, queues, prefixes)...)
			for _, m := range q.Menu {
				if strings.TrimSpace(m.Name) == "" {
					errs = append(errs, fmt.Errorf("%s: queue %q has a menu item without a name", where, q.Name))
				}
			}
		}
		departments := map[string]bool{}
		intake := 0
		for _, d := range b.Departments {
			if kind == types.KindBank {
				errs = append(errs, fmt.Errorf("%s: bank branches have queues, not departments", where))
				break
			}
			errs = append(errs, lineErrors(where, "department", d.Name, d.Prefix, departments, prefixes)...)
			if d.Intake {
				intake++
			}
		}
		if intake > 1 {
			errs = append(errs, fmt.Errorf("%s: at most one intake department", where))
		}

		counters := map[string]bool{}
		for _, c := range b.Counters {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				errs = append(errs, fmt.Errorf("%s: counter name is required", where))
				continue
			}
			if counters[strings.ToLower(name)] {
				errs = append(errs, fmt.Errorf("%s: duplicate counter %q", where, name))
			}
			counters[strings.ToLower(name)] = true
			switch kind {
			case types.KindBank:
				if c.Department != "" || !queues[strings.ToLower(strings.TrimSpace(c.Queue))] {
					errs = append(errs, fmt.Errorf("%s: counter %q must name a queue of the branch", where, name))
				}
			case types.KindHospital:
				if c.Queue != "" || !departments[strings.ToLower(strings.TrimSpace(c.Department))] {
					errs = append(errs, fmt.Errorf("%s: counter %q must name a department of the branch", where, name))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (u UserSpec) validate(where string) []error {
	var errs []error
	if !strings.Contains(u.Email, "@") {
		errs = append(errs, fmt.Errorf("%s: invalid email %q", where, u.Email))
	}
	if len(u.Password) < 8 {
		errs = append(errs, fmt.Errorf("%s: password must be at least 8 characters", where))
	}
	if strings.TrimSpace(u.FirstName) == "" {
		errs = append(errs, fmt.Errorf("%s: first_name is required", where))
	}
	return errs
}

// lineErrors checks one queue or department. prefixes maps each prefix seen
// in the branch to the line that claimed it.
func lineErrors(where, what, name, prefix string, seen map[string]bool, prefixes map[string]string) []error {
	var errs []error
	name = strings.TrimSpace(name)
	if name == "" {
		return []error{fmt.Errorf("%s: %s name is required", where, what)}
	}
	key := strings.ToLower(name)
	if seen[key] {
		errs = append(errs, fmt.Errorf("%s: duplicate %s %q", where, what, name))
	}
	seen[key] = true
	p := queueing.NormalizePrefix(prefix)
	valid := len(p) >= 1 && len(p) <= 3
	for _, r := range p {
		if r < 'A' || r > 'Z' {
			valid = false
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("%s: %s %q needs a prefix of one to three letters", where, what, name))
		return errs
	}
	if owner, ok := prefixes[p]; ok {
		errs = append(errs, fmt.Errorf("%s: %s %q reuses prefix %s of %s", where, what, name, p, owner))
	}
	prefixes[p] = name
	return errs
}
