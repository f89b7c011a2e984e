package services

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db/memory"
)

// mockSender records sent emails and can be told to fail for specific
// recipients
type mockSender struct {
	sentEmails []sentEmail
	failFor    []string
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

func (m *mockSender) SendEmail(to, subject, body string) error {
	if slices.Contains(m.failFor, to) {
		return fmt.Errorf("smtp: delivery to %s refused", to)
	}
	m.sentEmails = append(m.sentEmails, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (m *mockSender) recipients() []string {
	out := make([]string, 0, len(m.sentEmails))
	for _, e := range m.sentEmails {
		out = append(out, e.to)
	}
	return out
}

// fakeScheduler records scheduler calls without running timers
type fakeScheduler struct {
	scheduled   map[string]time.Time
	rescheduled map[string]time.Time
	cancelled   []string
	err         error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled:   make(map[string]time.Time),
		rescheduled: make(map[string]time.Time),
	}
}

func (f *fakeScheduler) Schedule(ctx context.Context, planPeriodID string, deadline time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled[planPeriodID] = deadline
	return nil
}

func (f *fakeScheduler) Reschedule(ctx context.Context, planPeriodID string, deadline time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.rescheduled[planPeriodID] = deadline
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, planPeriodID string) error {
	f.cancelled = append(f.cancelled, planPeriodID)
	return nil
}

// fixture is a seeded entity graph: one project with an admin, one team
// with a dispatcher and two actors.
type fixture struct {
	store      *memory.Store
	project    model.Project
	admin      model.Person
	dispatcher model.Person
	team       model.Team
	actor1     model.Person
	actor2     model.Person
}

func date(s string) time.Time {
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()

	f := &fixture{store: store}

	f.project = model.Project{ID: "proj-1", Name: "HCC", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateProject(ctx, &f.project))

	f.admin = model.Person{ID: "admin-1", FirstName: "Anna", LastName: "Acker",
		Email: "anna@example.com", ProjectID: "proj-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreatePerson(ctx, &f.admin))

	f.project.AdminID = f.admin.ID
	require.NoError(t, store.UpdateProject(ctx, f.project))

	f.dispatcher = model.Person{ID: "disp-1", FirstName: "Dora", LastName: "Dietz",
		Email: "dora@example.com", ProjectID: "proj-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreatePerson(ctx, &f.dispatcher))

	f.team = model.Team{ID: "team-1", Name: "Bühne", DispatcherID: "disp-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateTeam(ctx, &f.team))

	f.actor1 = model.Person{ID: "actor-1", FirstName: "Emil", LastName: "Ernst",
		Email: "emil@example.com", ProjectID: "proj-1", ActorTeamID: "team-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreatePerson(ctx, &f.actor1))

	f.actor2 = model.Person{ID: "actor-2", FirstName: "Frida", LastName: "Fuchs",
		Email: "frida@example.com", ProjectID: "proj-1", ActorTeamID: "team-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreatePerson(ctx, &f.actor2))

	return f
}

func (f *fixture) adminCaller() Caller {
	return Caller{PersonID: f.admin.ID, Roles: auth.RoleSet{auth.RoleAdmin: true}}
}

func (f *fixture) dispatcherCaller() Caller {
	return Caller{PersonID: f.dispatcher.ID, Roles: auth.RoleSet{auth.RoleDispatcher: true}}
}

func (f *fixture) actorCaller(personID string) Caller {
	return Caller{PersonID: personID, Roles: auth.RoleSet{auth.RoleActor: true}}
}

// createPeriod seeds a plan period directly in the store.
func (f *fixture) createPeriod(t *testing.T, id, start, end, deadline string, closed bool) model.PlanPeriod {
	t.Helper()
	now := time.Now().UTC()
	pp := model.PlanPeriod{
		ID:        id,
		TeamID:    f.team.ID,
		Start:     date(start),
		End:       date(end),
		Deadline:  date(deadline),
		Closed:    closed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.CreatePlanPeriod(context.Background(), &pp))
	return pp
}
