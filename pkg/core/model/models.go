package model

import "time"

// TimeOfDay encodes the part of a day an actor is available for.
// The single-letter codes are kept for compatibility with the legacy
// submission forms (vormittags / nachmittags / ganztags).
type TimeOfDay string

const (
	Morning   TimeOfDay = "v"
	Afternoon TimeOfDay = "n"
	WholeDay  TimeOfDay = "g"
)

// NotAvailable is the form value for "not available that day". It is a
// sentinel only: days carrying it are never stored, absence of an
// AvailDay means not available.
const NotAvailable = "x"

func (t TimeOfDay) IsValid() bool {
	return t == Morning || t == Afternoon || t == WholeDay
}

// DateFormat is the wire and display format for calendar dates.
const DateFormat = "2006-01-02"

// Project is the tenant root. AdminID points at the single Person
// administering the project; empty only during account bootstrap.
type Project struct {
	ID        string
	Name      string
	AdminID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Person is a single multi-role entity: the same record may be a
// project admin, a dispatcher of several teams and the actor-member of
// one team. The facets live on the related records (Project.AdminID,
// Team.DispatcherID, Person.ActorTeamID), not on a role field.
type Person struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	ProjectID    string
	ActorTeamID  string // empty when the person is not an actor
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Team groups actors under exactly one dispatcher.
type Team struct {
	ID           string
	Name         string
	DispatcherID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanPeriod is a date range a dispatcher collects availability for.
// Deadline is when feedback is due, independent of [Start, End].
type PlanPeriod struct {
	ID        string
	TeamID    string
	Start     time.Time
	End       time.Time
	Deadline  time.Time
	Notes     string
	Closed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Availables is one actor's submission envelope for one plan period:
// free-text notes plus the set of days they are available.
type Availables struct {
	ID           string
	PlanPeriodID string
	PersonID     string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AvailDay is a single available calendar day inside an envelope.
type AvailDay struct {
	ID           string
	AvailablesID string
	Day          time.Time
	TimeOfDay    TimeOfDay
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
