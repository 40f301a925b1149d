package domain

import (
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/content"
	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	"github.com/yungbote/queueflow-backend/internal/domain/queueing"
	"github.com/yungbote/queueflow-backend/internal/domain/tenant"
	"github.com/yungbote/queueflow-backend/internal/domain/ticket"
)

type BranchKind = tenant.Kind

const (
	KindBank     = tenant.KindBank
	KindHospital = tenant.KindHospital
)

type Branch = tenant.Branch
type Setting = tenant.Setting

type User = identity.User
type Role = identity.Role
type UserToken = identity.UserToken

type Queue = queueing.Queue
type MenuItem = queueing.MenuItem
type Department = queueing.Department
type Counter = queueing.Counter
type CounterAssignment = queueing.CounterAssignment
type TicketSequence = queueing.TicketSequence

type Ticket = ticket.Ticket
type TicketStatus = ticket.Status
type Visit = ticket.Visit

const (
	StatusNotServed = ticket.StatusNotServed
	StatusServing   = ticket.StatusServing
	StatusHold      = ticket.StatusHold
	StatusServed    = ticket.StatusServed
)

type Ad = content.Ad
type Event = content.Event

type ActivityLog = audit.ActivityLog

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&Branch{},
		&Setting{},
		&Role{},
		&User{},
		&UserToken{},
		&Queue{},
		&Department{},
		&Counter{},
		&CounterAssignment{},
		&TicketSequence{},
		&Ticket{},
		&Ad{},
		&Event{},
		&ActivityLog{},
	}
}
