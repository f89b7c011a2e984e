package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/core/services"
)

type OpenPlanPeriodInfo struct {
	PlanPeriod PlanPeriodInfo `json:"plan_period"`
	FilledIn   bool           `json:"filled_in"`
	Days       []string       `json:"days"`
}

// OpenPlanPeriods lists the open periods of the actor's team, each with
// the submission state and the calendar days the form covers.
func (a *API) OpenPlanPeriods(c *fiber.Ctx) error {
	cl := caller(c)
	periods, err := services.OpenPlanPeriods(c.Context(), a.store, cl.PersonID)
	if err != nil {
		return fail(c, err)
	}

	out := make([]OpenPlanPeriodInfo, 0, len(periods))
	for _, p := range periods {
		days, err := services.PeriodDays(p.PlanPeriod)
		if err != nil {
			return fail(c, err)
		}
		dayStrings := make([]string, 0, len(days))
		for _, d := range days {
			dayStrings = append(dayStrings, d.Format(model.DateFormat))
		}
		out = append(out, OpenPlanPeriodInfo{
			PlanPeriod: planPeriodInfo(p.PlanPeriod),
			FilledIn:   p.FilledIn,
			Days:       dayStrings,
		})
	}
	return c.JSON(out)
}

// MyAvailability returns the actor's own submission for a period.
func (a *API) MyAvailability(c *fiber.Ctx) error {
	cl := caller(c)
	planPeriodID := c.Params("planPeriodID")

	availability, ok, err := services.ByActorAndPeriod(c.Context(), a.store, cl.PersonID, planPeriodID)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"submitted": false})
	}
	return c.JSON(fiber.Map{"submitted": true, "availability": actorAvailabilityInfo(availability)})
}

type SubmitDayEntry struct {
	Day   string `json:"day"`
	Value string `json:"value"`
}

type SubmitAvailabilityRequest struct {
	PlanPeriodID string           `json:"plan_period_id"`
	Notes        string           `json:"notes"`
	Days         []SubmitDayEntry `json:"days"`
}

// SubmitAvailability records the actor's availability for a period. A
// resubmission fully replaces the previous one.
func (a *API) SubmitAvailability(c *fiber.Ctx) error {
	var req SubmitAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entries := make([]services.DayEntry, 0, len(req.Days))
	for _, d := range req.Days {
		day, err := time.Parse(model.DateFormat, d.Day)
		if err != nil {
			return badRequest(c, "invalid day "+d.Day)
		}
		entries = append(entries, services.DayEntry{Day: day, Value: d.Value})
	}

	err := services.Submit(c.Context(), a.store, a.logger, caller(c), services.SubmitInput{
		PlanPeriodID: req.PlanPeriodID,
		Notes:        req.Notes,
		Days:         entries,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "submitted"})
}

type AccountSettingsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetAccountSettings lets the actor change their own login credentials.
func (a *API) SetAccountSettings(c *fiber.Ctx) error {
	var req AccountSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	person, err := services.SetActorAccountSettings(c.Context(), a.store, a.logger, caller(c), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(personInfo(person))
}
