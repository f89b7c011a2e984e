// Package memory provides an in-memory Store implementation with the
// same write-time checks as the postgres store. It backs the test
// suites and the CLI's --dry-run mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// Store keeps all entities in maps behind one mutex. Every operation
// runs under the lock, which gives the per-entity linearization and
// team-granularity isolation the store contract requires.
type Store struct {
	mu sync.Mutex

	projects    map[string]model.Project
	persons     map[string]model.Person
	teams       map[string]model.Team
	planPeriods map[string]model.PlanPeriod
	envelopes   map[string]model.Availables // by envelope ID
	availDays   map[string][]model.AvailDay // by envelope ID
	jobs        map[string]db.ReminderJob   // by plan period ID
}

func NewStore() *Store {
	return &Store{
		projects:    make(map[string]model.Project),
		persons:     make(map[string]model.Person),
		teams:       make(map[string]model.Team),
		planPeriods: make(map[string]model.PlanPeriod),
		envelopes:   make(map[string]model.Availables),
		availDays:   make(map[string][]model.AvailDay),
		jobs:        make(map[string]db.ReminderJob),
	}
}

var _ db.Store = (*Store)(nil)

// --- projects ---

func (s *Store) CreateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if strings.EqualFold(p.Name, project.Name) {
			return db.ErrUniqueness
		}
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, db.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProject(_ context.Context, project model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return db.ErrNotFound
	}
	for id, p := range s.projects {
		if id != project.ID && strings.EqualFold(p.Name, project.Name) {
			return db.ErrUniqueness
		}
	}
	if project.AdminID != "" {
		admin, ok := s.persons[project.AdminID]
		if !ok {
			return db.ErrNotFound
		}
		if admin.ProjectID != project.ID {
			return db.ErrInvariant
		}
	}
	s.projects[project.ID] = project
	return nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return db.ErrNotFound
	}
	for _, t := range s.teams {
		if d, ok := s.persons[t.DispatcherID]; ok && d.ProjectID == id {
			return db.ErrInvariant
		}
	}
	for pid, p := range s.persons {
		if p.ProjectID == id {
			delete(s.persons, pid)
		}
	}
	delete(s.projects, id)
	return nil
}

// --- persons ---

func (s *Store) CreatePerson(_ context.Context, person *model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[person.ProjectID]; !ok {
		return db.ErrNotFound
	}
	for _, p := range s.persons {
		if strings.EqualFold(p.Email, person.Email) {
			return db.ErrUniqueness
		}
	}
	if person.ActorTeamID != "" {
		if _, ok := s.teams[person.ActorTeamID]; !ok {
			return db.ErrNotFound
		}
	}
	s.persons[person.ID] = *person
	return nil
}

func (s *Store) GetPerson(_ context.Context, id string) (model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[id]
	if !ok {
		return model.Person{}, db.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetPersonByEmail(_ context.Context, email string) (model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.persons {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return model.Person{}, db.ErrNotFound
}

func (s *Store) UpdatePerson(_ context.Context, person model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[person.ID]; !ok {
		return db.ErrNotFound
	}
	for id, p := range s.persons {
		if id != person.ID && strings.EqualFold(p.Email, person.Email) {
			return db.ErrUniqueness
		}
	}
	if person.ActorTeamID != "" {
		if _, ok := s.teams[person.ActorTeamID]; !ok {
			return db.ErrNotFound
		}
	}
	s.persons[person.ID] = person
	return nil
}

func (s *Store) DeletePerson(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[id]; !ok {
		return db.ErrNotFound
	}
	for _, p := range s.projects {
		if p.AdminID == id {
			return db.ErrInvariant
		}
	}
	for _, t := range s.teams {
		if t.DispatcherID == id {
			return db.ErrInvariant
		}
	}
	for eid, env := range s.envelopes {
		if env.PersonID == id {
			delete(s.envelopes, eid)
			delete(s.availDays, eid)
		}
	}
	delete(s.persons, id)
	return nil
}

func (s *Store) PersonsOfProject(_ context.Context, projectID string) ([]model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Person
	for _, p := range s.persons {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	sortPersons(out)
	return out, nil
}

func (s *Store) ActorsOfTeam(_ context.Context, teamID string) ([]model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Person
	for _, p := range s.persons {
		if p.ActorTeamID == teamID {
			out = append(out, p)
		}
	}
	sortPersons(out)
	return out, nil
}

// --- teams ---

func (s *Store) CreateTeam(_ context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[team.DispatcherID]; !ok {
		return db.ErrNotFound
	}
	for _, t := range s.teams {
		if strings.EqualFold(t.Name, team.Name) {
			return db.ErrUniqueness
		}
	}
	s.teams[team.ID] = *team
	return nil
}

func (s *Store) GetTeam(_ context.Context, id string) (model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return model.Team{}, db.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTeam(_ context.Context, team model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; !ok {
		return db.ErrNotFound
	}
	for id, t := range s.teams {
		if id != team.ID && strings.EqualFold(t.Name, team.Name) {
			return db.ErrUniqueness
		}
	}
	if _, ok := s.persons[team.DispatcherID]; !ok {
		return db.ErrNotFound
	}
	s.teams[team.ID] = team
	return nil
}

func (s *Store) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return db.ErrNotFound
	}
	for _, pp := range s.planPeriods {
		if pp.TeamID == id {
			return db.ErrInvariant
		}
	}
	for pid, p := range s.persons {
		if p.ActorTeamID == id {
			p.ActorTeamID = ""
			s.persons[pid] = p
		}
	}
	delete(s.teams, id)
	return nil
}

func (s *Store) TeamsOfDispatcher(_ context.Context, dispatcherID string) ([]model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Team
	for _, t := range s.teams {
		if t.DispatcherID == dispatcherID {
			out = append(out, t)
		}
	}
	sortTeams(out)
	return out, nil
}

func (s *Store) TeamsOfProject(_ context.Context, projectID string) ([]model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Team
	for _, t := range s.teams {
		if d, ok := s.persons[t.DispatcherID]; ok && d.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sortTeams(out)
	return out, nil
}

// --- plan periods ---

func (s *Store) CreatePlanPeriod(_ context.Context, pp *model.PlanPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[pp.TeamID]; !ok {
		return db.ErrNotFound
	}
	s.planPeriods[pp.ID] = *pp
	return nil
}

func (s *Store) GetPlanPeriod(_ context.Context, id string) (model.PlanPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pp, ok := s.planPeriods[id]
	if !ok {
		return model.PlanPeriod{}, db.ErrNotFound
	}
	return pp, nil
}

func (s *Store) UpdatePlanPeriod(_ context.Context, pp model.PlanPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planPeriods[pp.ID]; !ok {
		return db.ErrNotFound
	}
	s.planPeriods[pp.ID] = pp
	return nil
}

func (s *Store) DeletePlanPeriod(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planPeriods[id]; !ok {
		return db.ErrNotFound
	}
	for eid, env := range s.envelopes {
		if env.PlanPeriodID == id {
			delete(s.envelopes, eid)
			delete(s.availDays, eid)
		}
	}
	delete(s.planPeriods, id)
	return nil
}

func (s *Store) PlanPeriodsOfTeam(_ context.Context, teamID string) ([]model.PlanPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PlanPeriod
	for _, pp := range s.planPeriods {
		if pp.TeamID == teamID {
			out = append(out, pp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// --- availability ---

func (s *Store) ReplaceAvailability(_ context.Context, envelope model.Availables, days []model.AvailDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[envelope.PersonID]; !ok {
		return db.ErrNotFound
	}
	if _, ok := s.planPeriods[envelope.PlanPeriodID]; !ok {
		return db.ErrNotFound
	}
	// Re-use an existing envelope for the same (person, period) pair so
	// resubmission replaces rather than accumulates.
	for eid, env := range s.envelopes {
		if env.PersonID == envelope.PersonID && env.PlanPeriodID == envelope.PlanPeriodID {
			envelope.ID = eid
			envelope.CreatedAt = env.CreatedAt
			break
		}
	}
	stored := make([]model.AvailDay, len(days))
	for i, d := range days {
		d.AvailablesID = envelope.ID
		stored[i] = d
	}
	s.envelopes[envelope.ID] = envelope
	s.availDays[envelope.ID] = stored
	return nil
}

func (s *Store) GetAvailability(_ context.Context, personID, planPeriodID string) (db.Submission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eid, env := range s.envelopes {
		if env.PersonID == personID && env.PlanPeriodID == planPeriodID {
			return db.Submission{Envelope: env, Days: append([]model.AvailDay(nil), s.availDays[eid]...)}, true, nil
		}
	}
	return db.Submission{}, false, nil
}

func (s *Store) AvailabilitiesOfPeriod(_ context.Context, planPeriodID string) ([]db.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Submission
	for eid, env := range s.envelopes {
		if env.PlanPeriodID == planPeriodID {
			out = append(out, db.Submission{Envelope: env, Days: append([]model.AvailDay(nil), s.availDays[eid]...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Envelope.PersonID < out[j].Envelope.PersonID })
	return out, nil
}

// --- scheduler jobs ---

func (s *Store) SaveJob(_ context.Context, job db.ReminderJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.PlanPeriodID] = job
	return nil
}

func (s *Store) DeleteJob(_ context.Context, planPeriodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, planPeriodID)
	return nil
}

func (s *Store) ListJobs(_ context.Context) ([]db.ReminderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.ReminderJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanPeriodID < out[j].PlanPeriodID })
	return out, nil
}

func sortPersons(ps []model.Person) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].LastName != ps[j].LastName {
			return ps[i].LastName < ps[j].LastName
		}
		return ps[i].FirstName < ps[j].FirstName
	})
}

func sortTeams(ts []model.Team) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
}
