package seed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	"github.com/yungbote/queueflow-backend/internal/domain/queueing"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

// Summary counts records per entity ("branch", "role", ...).
type Summary struct {
	Created map[string]int
	Updated map[string]int
}

func newSummary() *Summary {
	return &Summary{Created: map[string]int{}, Updated: map[string]int{}}
}

func (s *Summary) String() string {
	keys := make([]string, 0, len(s.Created)+len(s.Updated))
	seen := map[string]bool{}
	for k := range s.Created {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range s.Updated {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s +%d ~%d", k, s.Created[k], s.Updated[k]))
	}
	return strings.Join(parts, ", ")
}

// Seeder applies a seed File. Records are matched by natural key (branch
// code, user email, and name within a branch for everything else), so
// running the same file twice changes nothing the second time.
type Seeder struct {
	db          *gorm.DB
	log         *logger.Logger
	hashCost    int
	branches    repos.BranchRepo
	settings    repos.SettingRepo
	roles       repos.RoleRepo
	users       repos.UserRepo
	queues      repos.QueueRepo
	departments repos.DepartmentRepo
	counters    repos.CounterRepo
}

func NewSeeder(db *gorm.DB, log *logger.Logger) *Seeder {
	return &Seeder{
		db:          db,
		log:         log.With("component", "Seeder"),
		hashCost:    bcrypt.DefaultCost,
		branches:    repos.NewBranchRepo(db, log),
		settings:    repos.NewSettingRepo(db, log),
		roles:       repos.NewRoleRepo(db, log),
		users:       repos.NewUserRepo(db, log),
		queues:      repos.NewQueueRepo(db, log),
		departments: repos.NewDepartmentRepo(db, log),
		counters:    repos.NewCounterRepo(db, log),
	}
}

// Apply writes f in a single transaction.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Summary, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	sum := newSummary()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, u := range f.SuperAdmins {
			if err := s.user(dbc, sum, nil, nil, u); err != nil {
				return err
			}
		}
		for _, b := range f.Branches {
			if err := s.branch(dbc, sum, b); err != nil {
				return fmt.Errorf("branch %s: %w", b.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("seed applied", "summary", sum.String())
	return sum, nil
}

func (s *Seeder) branch(dbc dbctx.Context, sum *Summary, in BranchSpec) error {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	kind := types.BranchKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	b, err := s.branches.GetByCode(dbc, code)
	if err != nil {
		return fmt.Errorf("load branch: %w", err)
	}
	if b == nil {
		b = &types.Branch{
			Name:     strings.TrimSpace(in.Name),
			Code:     code,
			Kind:     kind,
			Address:  in.Address,
			Phone:    in.Phone,
			Timezone: tz,
			Active:   true,
		}
		if err := s.branches.Create(dbc, b); err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		sum.Created["branch"]++
	} else {
		if b.Kind != kind {
			return fmt.Errorf("existing branch is a %s branch, seed says %s", b.Kind, kind)
		}
		want := map[string][2]any{
			"name":    {b.Name, strings.TrimSpace(in.Name)},
			"address": {b.Address, in.Address},
			"phone":   {b.Phone, in.Phone},
		}
		if strings.TrimSpace(in.Timezone) != "" {
			want["timezone"] = [2]any{b.Timezone, tz}
		}
		updates := changed(want)
		if len(updates) > 0 {
			if err := s.branches.Update(dbc, b.ID, updates); err != nil {
				return fmt.Errorf("update branch: %w", err)
			}
			sum.Updated["branch"]++
		}
	}

	if err := s.setting(dbc, sum, b, in.Settings); err != nil {
		return err
	}

	roleIDs := map[string]uuid.UUID{}
	for _, r := range in.Roles {
		id, err := s.role(dbc, sum, b.ID, r)
		if err != nil {
			return err
		}
		roleIDs[strings.ToLower(strings.TrimSpace(r.Name))] = id
	}
	for _, u := range in.Users {
		var roleID *uuid.UUID
		if id, ok := roleIDs[strings.ToLower(strings.TrimSpace(u.Role))]; ok {
			roleID = &id
		}
		branchID := b.ID
		if err := s.user(dbc, sum, &branchID, roleID, u); err != nil {
			return err
		}
	}

	lines := map[string]uuid.UUID{}
	for _, q := range in.Queues {
		id, err := s.queue(dbc, sum, b.ID, q)
		if err != nil {
			return err
		}
		lines[strings.ToLower(strings.TrimSpace(q.Name))] = id
	}
	for _, d := range in.Departments {
		id, err := s.department(dbc, sum, b.ID, d)
		if err != nil {
			return err
		}
		lines[strings.ToLower(strings.TrimSpace(d.Name))] = id
	}
	for _, c := range in.Counters {
		if err := s.counter(dbc, sum, b, c, lines); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) setting(dbc dbctx.Context, sum *Summary, b *types.Branch, in *SettingSpec) error {
	cur, err := s.settings.GetByBranchID(dbc, b.ID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cur == nil {
		cur = &types.Setting{BranchID: b.ID, DisplayName: b.Name, BoardWaitingRows: 8}
		if err := s.settings.Create(dbc, cur); err != nil {
			return fmt.Errorf("create settings: %w", err)
		}
		sum.Created["setting"]++
	}
	if in == nil {
		return nil
	}
	want := map[string][2]any{}
	if in.DisplayName != nil {
		want["display_name"] = [2]any{cur.DisplayName, *in.DisplayName}
	}
	if in.TicketHeader != nil {
		want["ticket_header"] = [2]any{cur.TicketHeader, *in.TicketHeader}
	}
	if in.TicketFooter != nil {
		want["ticket_footer"] = [2]any{cur.TicketFooter, *in.TicketFooter}
	}
	if in.ThemeColor != nil {
		want["theme_color"] = [2]any{cur.ThemeColor, *in.ThemeColor}
	}
	if in.BoardWaitingRows != nil {
		want["board_waiting_rows"] = [2]any{cur.BoardWaitingRows, *in.BoardWaitingRows}
	}
	if in.DayStartHour != nil {
		want["day_start_hour"] = [2]any{cur.DayStartHour, *in.DayStartHour}
	}
	if in.ShowCustomerNames != nil {
		want["show_customer_names"] = [2]any{cur.ShowCustomerNames, *in.ShowCustomerNames}
	}
	updates := changed(want)
	if len(updates) == 0 {
		return nil
	}
	if err := s.settings.Update(dbc, b.ID, updates); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	sum.Updated["setting"]++
	return nil
}

func (s *Seeder) role(dbc dbctx.Context, sum *Summary, branchID uuid.UUID, in RoleSpec) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	perms := make(datatypes.JSONSlice[string], 0, len(in.Permissions))
	seen := map[string]bool{}
	for _, raw := range in.Permissions {
		p, _ := identity.ParsePermission(raw)
		if !seen[p.String()] {
			seen[p.String()] = true
			perms = append(perms, p.String())
		}
	}
	r, err := s.roles.GetByName(dbc, branchID, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load role %q: %w", name, err)
	}
	if r == nil {
		r = &types.Role{BranchID: branchID, Name: name, Description: in.Description, Permissions: perms}
		if err := s.roles.Create(dbc, r); err != nil {
			return uuid.Nil, fmt.Errorf("create role %q: %w", name, err)
		}
		sum.Created["role"]++
		return r.ID, nil
	}
	if r.Description == in.Description && sameStrings(r.Permissions, perms) {
		return r.ID, nil
	}
	r.Description = in.Description
	r.Permissions = perms
	if err := s.roles.Update(dbc, r); err != nil {
		return uuid.Nil, fmt.Errorf("update role %q: %w", name, err)
	}
	sum.Updated["role"]++
	return r.ID, nil
}

func (s *Seeder) user(dbc dbctx.Context, sum *Summary, branchID, roleID *uuid.UUID, in UserSpec) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := s.users.GetByEmail(dbc, email)
	if err != nil {
		return fmt.Errorf("load user %s: %w", email, err)
	}
	if u == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u = &types.User{
			BranchID:   branchID,
			RoleID:     roleID,
			Email:      email,
			Password:   string(hash),
			FirstName:  strings.TrimSpace(in.FirstName),
			LastName:   strings.TrimSpace(in.LastName),
			Phone:      in.Phone,
			Active:     true,
			SuperAdmin: branchID == nil,
		}
		if _, err := s.users.Create(dbc, []*types.User{u}); err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		sum.Created["user"]++
		return nil
	}
	if !sameUUID(u.BranchID, branchID) {
		return fmt.Errorf("user %s already belongs to another branch", email)
	}
	updates := changed(map[string][2]any{
		"first_name": {u.FirstName, strings.TrimSpace(in.FirstName)},
		"last_name":  {u.LastName, strings.TrimSpace(in.LastName)},
		"phone":      {u.Phone, in.Phone},
	})
	if !sameUUID(u.RoleID, roleID) {
		updates["role_id"] = roleID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.users.Update(dbc, u.ID, updates); err != nil {
		return fmt.Errorf("update user %s: %w", email, err)
	}
	sum.Updated["user"]++
	return nil
}

func (s *Seeder) queue(dbc dbctx.Context, sum *Summary, branchID uuid.UUID, in QueueSpec) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	menu := make(datatypes.JSONSlice[types.MenuItem], 0, len(in.Menu))
	for _, m := range in.Menu {
		subs := make([]string, 0, len(m.SubItems))
		for _, sub := range m.SubItems {
			if sub = strings.TrimSpace(sub); sub != "" {
				subs = append(subs, sub)
			}
		}
		menu = append(menu, types.MenuItem{Name: strings.TrimSpace(m.Name), SubItems: subs})
	}
	q, err := s.queues.GetByName(dbc, branchID, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load queue %q: %w", name, err)
	}
	if q == nil {
		q = &types.Queue{
			BranchID:    branchID,
			Name:        name,
			Prefix:      queueing.NormalizePrefix(in.Prefix),
			Description: in.Description,
			Menu:        menu,
			Active:      true,
		}
		if err := s.queues.Create(dbc, q); err != nil {
			return uuid.Nil, fmt.Errorf("create queue %q: %w", name, err)
		}
		sum.Created["queue"]++
		return q.ID, nil
	}
	updates := changed(map[string][2]any{
		"prefix":      {q.Prefix, queueing.NormalizePrefix(in.Prefix)},
		"description": {q.Description, in.Description},
	})
	if !sameMenu(q.Menu, menu) {
		updates["menu"] = menu
	}
	if len(updates) > 0 {
		if err := s.queues.Update(dbc, branchID, q.ID, updates); err != nil {
			return uuid.Nil, fmt.Errorf("update queue %q: %w", name, err)
		}
		sum.Updated["queue"]++
	}
	return q.ID, nil
}

func (s *Seeder) department(dbc dbctx.Context, sum *Summary, branchID uuid.UUID, in DepartmentSpec) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	d, err := s.departments.GetByName(dbc, branchID, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load department %q: %w", name, err)
	}
	if d == nil {
		d = &types.Department{
			BranchID:        branchID,
			Name:            name,
			Prefix:          queueing.NormalizePrefix(in.Prefix),
			Description:     in.Description,
			IsIntake:        in.Intake,
			RequiresPayment: in.RequiresPayment,
			Active:          true,
		}
		if err := s.departments.Create(dbc, d); err != nil {
			return uuid.Nil, fmt.Errorf("create department %q: %w", name, err)
		}
		sum.Created["department"]++
	} else {
		updates := changed(map[string][2]any{
			"prefix":           {d.Prefix, queueing.NormalizePrefix(in.Prefix)},
			"description":      {d.Description, in.Description},
			"is_intake":        {d.IsIntake, in.Intake},
			"requires_payment": {d.RequiresPayment, in.RequiresPayment},
		})
		if len(updates) > 0 {
			if err := s.departments.Update(dbc, branchID, d.ID, updates); err != nil {
				return uuid.Nil, fmt.Errorf("update department %q: %w", name, err)
			}
			sum.Updated["department"]++
		}
	}
	if in.Intake {
		if err := s.departments.ClearIntake(dbc, branchID, d.ID); err != nil {
			return uuid.Nil, fmt.Errorf("clear intake: %w", err)
		}
	}
	return d.ID, nil
}

func (s *Seeder) counter(dbc dbctx.Context, sum *Summary, b *types.Branch, in CounterSpec, lines map[string]uuid.UUID) error {
	name := strings.TrimSpace(in.Name)
	ref := in.Queue
	if b.Kind == types.KindHospital {
		ref = in.Department
	}
	lineID, ok := lines[strings.ToLower(strings.TrimSpace(ref))]
	if !ok {
		return fmt.Errorf("counter %q: unknown line %q", name, ref)
	}
	var queueID, departmentID *uuid.UUID
	if b.Kind == types.KindBank {
		queueID = &lineID
	} else {
		departmentID = &lineID
	}
	c, err := s.counters.GetByName(dbc, b.ID, name)
	if err != nil {
		return fmt.Errorf("load counter %q: %w", name, err)
	}
	if c == nil {
		c = &types.Counter{
			BranchID:     b.ID,
			Name:         name,
			QueueID:      queueID,
			DepartmentID: departmentID,
			Active:       true,
		}
		if err := s.counters.Create(dbc, c); err != nil {
			return fmt.Errorf("create counter %q: %w", name, err)
		}
		sum.Created["counter"]++
		return nil
	}
	if sameUUID(c.QueueID, queueID) && sameUUID(c.DepartmentID, departmentID) {
		return nil
	}
	if err := s.counters.Update(dbc, b.ID, c.ID, map[string]any{
		"queue_id":      queueID,
		"department_id": departmentID,
	}); err != nil {
		return fmt.Errorf("update counter %q: %w", name, err)
	}
	sum.Updated["counter"]++
	return nil
}

// changed keeps the columns whose [current, wanted] pair differs.
func changed(pairs map[string][2]any) map[string]any {
	out := map[string]any{}
	for col, p := range pairs {
		if p[0] != p[1] {
			out[col] = p[1]
		}
	}
	return out
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameMenu(a, b []types.MenuItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !sameStrings(a[i].SubItems, b[i].SubItems) {
			return false
		}
	}
	return true
}
