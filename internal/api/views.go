package api

import (
	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/core/services"
)

// JSON shapes returned by the handlers. Calendar dates travel as
// "2006-01-02" strings.

type PersonInfo struct {
	ID          string `json:"id"`
	FirstName   string `json:"f_name"`
	LastName    string `json:"l_name"`
	Email       string `json:"email"`
	ProjectID   string `json:"project_id"`
	ActorTeamID string `json:"actor_team_id,omitempty"`
}

func personInfo(p model.Person) PersonInfo {
	return PersonInfo{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		ProjectID:   p.ProjectID,
		ActorTeamID: p.ActorTeamID,
	}
}

func personInfos(persons []model.Person) []PersonInfo {
	out := make([]PersonInfo, 0, len(persons))
	for _, p := range persons {
		out = append(out, personInfo(p))
	}
	return out
}

type TeamInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DispatcherID string `json:"dispatcher_id"`
}

func teamInfo(t model.Team) TeamInfo {
	return TeamInfo{ID: t.ID, Name: t.Name, DispatcherID: t.DispatcherID}
}

func teamInfos(teams []model.Team) []TeamInfo {
	out := make([]TeamInfo, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamInfo(t))
	}
	return out
}

type PlanPeriodInfo struct {
	ID       string `json:"id"`
	TeamID   string `json:"team_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Deadline string `json:"deadline"`
	Notes    string `json:"notes"`
	Closed   bool   `json:"closed"`
}

func planPeriodInfo(pp model.PlanPeriod) PlanPeriodInfo {
	return PlanPeriodInfo{
		ID:       pp.ID,
		TeamID:   pp.TeamID,
		Start:    pp.Start.Format(model.DateFormat),
		End:      pp.End.Format(model.DateFormat),
		Deadline: pp.Deadline.Format(model.DateFormat),
		Notes:    pp.Notes,
		Closed:   pp.Closed,
	}
}

type AvailDayInfo struct {
	Day       string `json:"day"`
	TimeOfDay string `json:"time_of_day"`
}

type ActorAvailabilityInfo struct {
	Person PersonInfo     `json:"person"`
	Notes  string         `json:"notes"`
	Days   []AvailDayInfo `json:"avail_days"`
}

func actorAvailabilityInfo(a services.ActorAvailability) ActorAvailabilityInfo {
	days := make([]AvailDayInfo, 0, len(a.Days))
	for _, d := range a.Days {
		days = append(days, AvailDayInfo{
			Day:       d.Day.Format(model.DateFormat),
			TimeOfDay: string(d.TimeOfDay),
		})
	}
	return ActorAvailabilityInfo{Person: personInfo(a.Person), Notes: a.Notes, Days: days}
}
