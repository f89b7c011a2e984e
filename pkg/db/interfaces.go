package db

import (
	"context"
	"time"

	"github.com/hccplan/dispo/pkg/core/model"
)

// ProjectStore defines the interface for project database operations
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id string) (model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	// DeleteProject removes the project record only. Teams are
	// intentionally not cascaded; see services.DeleteProject.
	DeleteProject(ctx context.Context, id string) error
}

// PersonStore defines the interface for person database operations
type PersonStore interface {
	CreatePerson(ctx context.Context, person *model.Person) error
	GetPerson(ctx context.Context, id string) (model.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (model.Person, error)
	UpdatePerson(ctx context.Context, person model.Person) error
	DeletePerson(ctx context.Context, id string) error
	PersonsOfProject(ctx context.Context, projectID string) ([]model.Person, error)
	ActorsOfTeam(ctx context.Context, teamID string) ([]model.Person, error)
}

// TeamStore defines the interface for team database operations
type TeamStore interface {
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, id string) (model.Team, error)
	UpdateTeam(ctx context.Context, team model.Team) error
	// DeleteTeam removes the team record only; plan periods and their
	// availabilities must already be gone (ordered delete).
	DeleteTeam(ctx context.Context, id string) error
	TeamsOfDispatcher(ctx context.Context, dispatcherID string) ([]model.Team, error)
	TeamsOfProject(ctx context.Context, projectID string) ([]model.Team, error)
}

// PlanPeriodStore defines the interface for plan period operations.
// CreatePlanPeriod must be serialized per team so two concurrent
// creates cannot both pass the overlap check.
type PlanPeriodStore interface {
	CreatePlanPeriod(ctx context.Context, pp *model.PlanPeriod) error
	GetPlanPeriod(ctx context.Context, id string) (model.PlanPeriod, error)
	UpdatePlanPeriod(ctx context.Context, pp model.PlanPeriod) error
	// DeletePlanPeriod removes the period and, as an owned cascade, all
	// of its availabilities and avail days in one transaction.
	DeletePlanPeriod(ctx context.Context, id string) error
	PlanPeriodsOfTeam(ctx context.Context, teamID string) ([]model.PlanPeriod, error)
}

// Submission is an availability envelope together with its days.
type Submission struct {
	Envelope model.Availables
	Days     []model.AvailDay
}

// AvailabilityStore defines the interface for availability operations.
// ReplaceAvailability must clear and re-insert atomically: a concurrent
// reader never observes a partially written day set.
type AvailabilityStore interface {
	// ReplaceAvailability upserts the (person, period) envelope, clears
	// any previously stored days and inserts the supplied set.
	ReplaceAvailability(ctx context.Context, envelope model.Availables, days []model.AvailDay) error
	// GetAvailability returns the envelope and its days, or ok=false
	// when no submission exists (absence is not an error).
	GetAvailability(ctx context.Context, personID, planPeriodID string) (Submission, bool, error)
	// AvailabilitiesOfPeriod returns every submission for the period.
	AvailabilitiesOfPeriod(ctx context.Context, planPeriodID string) ([]Submission, error)
}

// ReminderJob is the persisted record of one scheduled reminder, enough
// to reconstruct the timer after a restart. Callback names the fire
// handler symbolically; it must resolve to the same logical function in
// the restarted process.
type ReminderJob struct {
	PlanPeriodID string
	FireAt       time.Time
	Callback     string
}

// JobStore defines the interface for scheduler job persistence
type JobStore interface {
	SaveJob(ctx context.Context, job ReminderJob) error
	// DeleteJob is idempotent: deleting an absent job is not an error.
	DeleteJob(ctx context.Context, planPeriodID string) error
	ListJobs(ctx context.Context) ([]ReminderJob, error)
}

// Store is the full persistence collaborator.
type Store interface {
	ProjectStore
	PersonStore
	TeamStore
	PlanPeriodStore
	AvailabilityStore
	JobStore
}
