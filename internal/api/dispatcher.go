package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/core/services"
)

func (a *API) TeamsOfDispatcher(c *fiber.Ctx) error {
	teams, err := services.TeamsOfDispatcher(c.Context(), a.store, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(teamInfos(teams))
}

func (a *API) ActorsOfDispatcher(c *fiber.Ctx) error {
	actors, err := services.ActorsOfDispatcher(c.Context(), a.store, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(personInfos(actors))
}

// PlanPeriodsOfTeam lists a team's periods newest first. Query params:
// limit caps the result, only_open filters closed periods.
func (a *API) PlanPeriodsOfTeam(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	limit := c.QueryInt("limit", 0)
	onlyOpen := c.QueryBool("only_open", false)

	periods, err := services.PlanPeriodsOfTeam(c.Context(), a.store, caller(c), teamID, limit, onlyOpen)
	if err != nil {
		return fail(c, err)
	}
	out := make([]PlanPeriodInfo, 0, len(periods))
	for _, pp := range periods {
		out = append(out, planPeriodInfo(pp))
	}
	return c.JSON(out)
}

// LastRecentEnd returns the latest end date of the team's periods, the
// basis for the next period's default start.
func (a *API) LastRecentEnd(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	cl := caller(c)

	team, err := a.store.GetTeam(c.Context(), teamID)
	if err != nil {
		return fail(c, err)
	}
	if team.DispatcherID != cl.PersonID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	}

	end, ok, err := services.LastRecentEnd(c.Context(), a.store, teamID)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"last_recent_date": nil})
	}
	return c.JSON(fiber.Map{"last_recent_date": end.Format(model.DateFormat)})
}

type CreatePlanPeriodRequest struct {
	TeamID   string `json:"team_id"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end"`
	Deadline string `json:"deadline"`
	Notes    string `json:"notes"`
}

func (a *API) CreatePlanPeriod(c *fiber.Ctx) error {
	var req CreatePlanPeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	end, err := time.Parse(model.DateFormat, req.End)
	if err != nil {
		return badRequest(c, "invalid end date")
	}
	deadline, err := time.Parse(model.DateFormat, req.Deadline)
	if err != nil {
		return badRequest(c, "invalid deadline date")
	}
	var start *time.Time
	if req.Start != "" {
		s, err := time.Parse(model.DateFormat, req.Start)
		if err != nil {
			return badRequest(c, "invalid start date")
		}
		start = &s
	}

	pp, err := services.CreatePlanPeriod(c.Context(), a.store, a.scheduler, a.logger, caller(c), services.CreatePlanPeriodInput{
		TeamID:   req.TeamID,
		Start:    start,
		End:      end,
		Deadline: deadline,
		Notes:    req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(planPeriodInfo(pp))
}

type UpdatePlanPeriodRequest struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Deadline string `json:"deadline"`
	Notes    string `json:"notes"`
	Closed   bool   `json:"closed"`
}

func (a *API) UpdatePlanPeriod(c *fiber.Ctx) error {
	var req UpdatePlanPeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	start, err := time.Parse(model.DateFormat, req.Start)
	if err != nil {
		return badRequest(c, "invalid start date")
	}
	end, err := time.Parse(model.DateFormat, req.End)
	if err != nil {
		return badRequest(c, "invalid end date")
	}
	deadline, err := time.Parse(model.DateFormat, req.Deadline)
	if err != nil {
		return badRequest(c, "invalid deadline date")
	}

	pp, err := services.UpdatePlanPeriod(c.Context(), a.store, a.scheduler, a.sender, a.logger, caller(c), services.UpdatePlanPeriodInput{
		ID:       req.ID,
		Start:    start,
		End:      end,
		Deadline: deadline,
		Notes:    req.Notes,
		Closed:   req.Closed,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(planPeriodInfo(pp))
}

func (a *API) DeletePlanPeriod(c *fiber.Ctx) error {
	planPeriodID := c.Params("id")
	if err := services.DeletePlanPeriod(c.Context(), a.store, a.scheduler, a.logger, caller(c), planPeriodID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": planPeriodID})
}

// AvailabilitiesOfPeriod returns every actor's submission for a period,
// days ordered by date.
func (a *API) AvailabilitiesOfPeriod(c *fiber.Ctx) error {
	planPeriodID := c.Params("planPeriodID")
	cl := caller(c)

	pp, err := a.store.GetPlanPeriod(c.Context(), planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	team, err := a.store.GetTeam(c.Context(), pp.TeamID)
	if err != nil {
		return fail(c, err)
	}
	if team.DispatcherID != cl.PersonID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	}

	availabilities, err := services.ByPeriod(c.Context(), a.store, planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]ActorAvailabilityInfo, 0, len(availabilities))
	for _, av := range availabilities {
		out = append(out, actorAvailabilityInfo(av))
	}
	return c.JSON(out)
}

type PlanPeriodStatusResponse struct {
	PlanPeriod    PlanPeriodInfo `json:"plan_period"`
	NotResponded  []PersonInfo   `json:"not_responded"`
	RespondedFrom int            `json:"responded"`
	ActorCount    int            `json:"actor_count"`
}

// PlanPeriodStatus reports who has not yet responded to a period.
func (a *API) PlanPeriodStatus(c *fiber.Ctx) error {
	planPeriodID := c.Params("planPeriodID")
	cl := caller(c)

	pp, err := a.store.GetPlanPeriod(c.Context(), planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	team, err := a.store.GetTeam(c.Context(), pp.TeamID)
	if err != nil {
		return fail(c, err)
	}
	if team.DispatcherID != cl.PersonID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	}

	actors, err := a.store.ActorsOfTeam(c.Context(), pp.TeamID)
	if err != nil {
		return fail(c, err)
	}
	nonResponders, err := services.NotYetResponded(c.Context(), a.store, planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(PlanPeriodStatusResponse{
		PlanPeriod:    planPeriodInfo(pp),
		NotResponded:  personInfos(nonResponders),
		RespondedFrom: len(actors) - len(nonResponders),
		ActorCount:    len(actors),
	})
}

type SendRemindersResponse struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendReminders triggers the reminder batch for a period manually,
// independent of the deadline timer.
func (a *API) SendReminders(c *fiber.Ctx) error {
	planPeriodID := c.Params("planPeriodID")
	cl := caller(c)

	pp, err := a.store.GetPlanPeriod(c.Context(), planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	team, err := a.store.GetTeam(c.Context(), pp.TeamID)
	if err != nil {
		return fail(c, err)
	}
	if team.DispatcherID != cl.PersonID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	}

	sent, failed, err := services.SendDeadlineReminders(c.Context(), a.store, a.sender, a.logger, planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(SendRemindersResponse{Sent: len(sent), Failed: len(failed)})
}
