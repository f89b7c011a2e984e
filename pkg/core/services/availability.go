package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// AggregatorStore defines the database operations the availability
// aggregator needs
type AggregatorStore interface {
	db.PersonStore
	db.TeamStore
	db.PlanPeriodStore
	db.AvailabilityStore
}

// DayEntry is one form row: a calendar day and the submitted value.
// Value is a TimeOfDay code or the not-available sentinel.
type DayEntry struct {
	Day   time.Time
	Value string
}

// SubmitInput is an actor's availability submission for one period.
type SubmitInput struct {
	PlanPeriodID string
	Notes        string
	Days         []DayEntry
}

// Submit records an actor's availability for a plan period. It is a
// full replace: previously stored days for the (person, period) pair
// are cleared before the new set is written, so retrying with the same
// input is idempotent. Days carrying the not-available sentinel are
// skipped, never stored.
func Submit(
	ctx context.Context,
	store AggregatorStore,
	logger *zap.Logger,
	caller Caller,
	in SubmitInput,
) error {
	pp, err := store.GetPlanPeriod(ctx, in.PlanPeriodID)
	if err != nil {
		return err
	}
	person, err := requireActorOfTeam(ctx, store, caller, pp.TeamID)
	if err != nil {
		return err
	}
	if pp.Closed {
		return fmt.Errorf("%w: plan period is closed", db.ErrInvariant)
	}

	now := time.Now().UTC()
	envelope := model.Availables{
		ID:           uuid.NewString(),
		PlanPeriodID: pp.ID,
		PersonID:     person.ID,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var days []model.AvailDay
	for _, entry := range in.Days {
		if entry.Value == model.NotAvailable {
			continue
		}
		tod := model.TimeOfDay(entry.Value)
		if !tod.IsValid() {
			return fmt.Errorf("%w: unknown time of day %q", db.ErrInvariant, entry.Value)
		}
		days = append(days, model.AvailDay{
			ID:           uuid.NewString(),
			AvailablesID: envelope.ID,
			Day:          model.Date(entry.Day),
			TimeOfDay:    tod,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := store.ReplaceAvailability(ctx, envelope, days); err != nil {
		return err
	}

	logger.Info("availability submitted",
		zap.String("plan_period_id", pp.ID),
		zap.String("person_id", person.ID),
		zap.Int("days", len(days)))
	return nil
}

// NotYetResponded returns every actor of the period's team who has not
// responded. An envelope with no notes and no days counts as not
// responded; distinguishing that from "never opened the form" is
// deliberately not attempted.
func NotYetResponded(ctx context.Context, store AggregatorStore, planPeriodID string) ([]model.Person, error) {
	pp, err := store.GetPlanPeriod(ctx, planPeriodID)
	if err != nil {
		return nil, err
	}
	actors, err := store.ActorsOfTeam(ctx, pp.TeamID)
	if err != nil {
		return nil, err
	}
	subs, err := store.AvailabilitiesOfPeriod(ctx, planPeriodID)
	if err != nil {
		return nil, err
	}

	responded := make(map[string]bool)
	for _, sub := range subs {
		if sub.Envelope.Notes != "" || len(sub.Days) > 0 {
			responded[sub.Envelope.PersonID] = true
		}
	}

	var out []model.Person
	for _, actor := range actors {
		if !responded[actor.ID] {
			out = append(out, actor)
		}
	}
	return out, nil
}

// ActorAvailability is one person's submission shaped for reporting:
// notes plus the days ordered by date.
type ActorAvailability struct {
	Person model.Person
	Notes  string
	Days   []model.AvailDay
}

// ByPeriod returns every submission for a period, one entry per person
// who has an envelope, days ordered by date. Used for the dispatcher
// review screen and the period-closed mail.
func ByPeriod(ctx context.Context, store AggregatorStore, planPeriodID string) ([]ActorAvailability, error) {
	if _, err := store.GetPlanPeriod(ctx, planPeriodID); err != nil {
		return nil, err
	}
	subs, err := store.AvailabilitiesOfPeriod(ctx, planPeriodID)
	if err != nil {
		return nil, err
	}

	var out []ActorAvailability
	for _, sub := range subs {
		person, err := store.GetPerson(ctx, sub.Envelope.PersonID)
		if err != nil {
			return nil, err
		}
		days := append([]model.AvailDay(nil), sub.Days...)
		sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
		out = append(out, ActorAvailability{Person: person, Notes: sub.Envelope.Notes, Days: days})
	}
	return out, nil
}

// ByActorAndPeriod returns one actor's submission for a period.
// ok is false when no submission exists; absence is not an error.
func ByActorAndPeriod(ctx context.Context, store AggregatorStore, personID, planPeriodID string) (ActorAvailability, bool, error) {
	person, err := store.GetPerson(ctx, personID)
	if err != nil {
		return ActorAvailability{}, false, err
	}
	sub, ok, err := store.GetAvailability(ctx, personID, planPeriodID)
	if err != nil || !ok {
		return ActorAvailability{}, false, err
	}
	days := append([]model.AvailDay(nil), sub.Days...)
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return ActorAvailability{Person: person, Notes: sub.Envelope.Notes, Days: days}, true, nil
}
