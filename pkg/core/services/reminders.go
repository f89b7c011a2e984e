package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
)

// Sender delivers a notification mail. Failures are reported back as
// non-fatal errors; no operation rolls back because a mail was lost.
type Sender interface {
	SendEmail(to, subject, body string) error
}

// ReminderSent represents an actor who was successfully sent a reminder
type ReminderSent struct {
	PersonID string
	Name     string
	Email    string
}

// FailedEmail represents a notification that could not be delivered
type FailedEmail struct {
	PersonID string
	Name     string
	Email    string
	Error    string
}

// SendDeadlineReminders is the reminder fire path: it computes the
// period's non-responders, mails each of them, and sends a summary
// confirmation to the dispatcher. It is called by the scheduler bridge
// when a deadline timer fires and by the CLI for manual resends.
func SendDeadlineReminders(
	ctx context.Context,
	store AggregatorStore,
	sender Sender,
	logger *zap.Logger,
	planPeriodID string,
) ([]ReminderSent, []FailedEmail, error) {
	pp, err := store.GetPlanPeriod(ctx, planPeriodID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load plan period: %w", err)
	}
	team, err := store.GetTeam(ctx, pp.TeamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load team: %w", err)
	}
	dispatcher, err := store.GetPerson(ctx, team.DispatcherID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dispatcher: %w", err)
	}

	nonResponders, err := NotYetResponded(ctx, store, planPeriodID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute non-responders: %w", err)
	}
	logger.Debug("computed non-responders",
		zap.String("plan_period_id", planPeriodID),
		zap.Int("count", len(nonResponders)))

	var sent []ReminderSent
	var failed []FailedEmail
	for _, actor := range nonResponders {
		subject, body := deadlineReminderMail(actor, pp, team)
		if err := sender.SendEmail(actor.Email, subject, body); err != nil {
			logger.Warn("reminder mail failed",
				zap.String("person_id", actor.ID), zap.Error(err))
			failed = append(failed, FailedEmail{
				PersonID: actor.ID, Name: actor.FullName(), Email: actor.Email, Error: err.Error(),
			})
			continue
		}
		sent = append(sent, ReminderSent{PersonID: actor.ID, Name: actor.FullName(), Email: actor.Email})
	}

	subject, body := reminderSummaryMail(dispatcher, pp, team, sent, failed)
	if err := sender.SendEmail(dispatcher.Email, subject, body); err != nil {
		logger.Warn("dispatcher confirmation mail failed",
			zap.String("person_id", dispatcher.ID), zap.Error(err))
	}

	return sent, failed, nil
}

// notifyPeriodClosed mails every actor of the closed period their final
// recorded availability. Send failures are logged and counted, never
// propagated: the closed state is already committed.
func notifyPeriodClosed(
	ctx context.Context,
	store AggregatorStore,
	sender Sender,
	logger *zap.Logger,
	pp model.PlanPeriod,
) (sent, failed int) {
	team, err := store.GetTeam(ctx, pp.TeamID)
	if err != nil {
		logger.Error("period closed: failed to load team", zap.Error(err))
		return 0, 0
	}
	actors, err := store.ActorsOfTeam(ctx, pp.TeamID)
	if err != nil {
		logger.Error("period closed: failed to load actors", zap.Error(err))
		return 0, 0
	}

	for _, actor := range actors {
		availability, ok, err := ByActorAndPeriod(ctx, store, actor.ID, pp.ID)
		if err != nil {
			logger.Warn("period closed: failed to load submission",
				zap.String("person_id", actor.ID), zap.Error(err))
			failed++
			continue
		}
		subject, body := periodClosedMail(actor, pp, team, availability, ok)
		if err := sender.SendEmail(actor.Email, subject, body); err != nil {
			logger.Warn("period closed mail failed",
				zap.String("person_id", actor.ID), zap.Error(err))
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

func periodRange(pp model.PlanPeriod) string {
	return pp.Start.Format(model.DateFormat) + " bis " + pp.End.Format(model.DateFormat)
}

func timeOfDayLabel(t model.TimeOfDay) string {
	switch t {
	case model.Morning:
		return "vormittags"
	case model.Afternoon:
		return "nachmittags"
	default:
		return "ganztags"
	}
}

func deadlineReminderMail(actor model.Person, pp model.PlanPeriod, team model.Team) (subject, body string) {
	subject = fmt.Sprintf("Erinnerung: Termineingabe für Team %q", team.Name)
	body = fmt.Sprintf(
		"Hallo %s,\n\n"+
			"für die Planungsperiode %s hast du noch keine Termine eingetragen.\n"+
			"Die Frist endet am %s. Bitte trage deine Verfügbarkeiten in der Online-Planung ein.\n\n"+
			"Viele Grüße\nTeam hcc-plan",
		actor.FullName(), periodRange(pp), pp.Deadline.Format(model.DateFormat))
	return subject, body
}

func reminderSummaryMail(dispatcher model.Person, pp model.PlanPeriod, team model.Team, sent []ReminderSent, failed []FailedEmail) (subject, body string) {
	subject = fmt.Sprintf("Erinnerungen verschickt: Team %q, Periode %s", team.Name, periodRange(pp))
	var b strings.Builder
	fmt.Fprintf(&b, "Hallo %s,\n\n", dispatcher.FullName())
	if len(sent) == 0 && len(failed) == 0 {
		b.WriteString("alle Mitglieder haben ihre Termine bereits eingetragen.\n")
	}
	if len(sent) > 0 {
		b.WriteString("Erinnerungen wurden verschickt an:\n")
		for _, s := range sent {
			fmt.Fprintf(&b, "  - %s (%s)\n", s.Name, s.Email)
		}
	}
	if len(failed) > 0 {
		b.WriteString("Nicht zustellbar:\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", f.Name, f.Email, f.Error)
		}
	}
	b.WriteString("\nViele Grüße\nTeam hcc-plan")
	return subject, b.String()
}

func periodClosedMail(actor model.Person, pp model.PlanPeriod, team model.Team, availability ActorAvailability, submitted bool) (subject, body string) {
	subject = fmt.Sprintf("Planungsperiode %s abgeschlossen", periodRange(pp))
	var b strings.Builder
	fmt.Fprintf(&b, "Hallo %s,\n\n", actor.FullName())
	fmt.Fprintf(&b, "die Planungsperiode %s für Team %q wurde abgeschlossen.\n\n", periodRange(pp), team.Name)
	if !submitted || (availability.Notes == "" && len(availability.Days) == 0) {
		b.WriteString("Du hast für diese Periode keine Verfügbarkeiten eingetragen.\n")
	} else {
		b.WriteString("Deine eingetragenen Verfügbarkeiten:\n")
		for _, d := range availability.Days {
			fmt.Fprintf(&b, "  - %s (%s)\n", d.Day.Format(model.DateFormat), timeOfDayLabel(d.TimeOfDay))
		}
		if availability.Notes != "" {
			fmt.Fprintf(&b, "Notizen: %s\n", availability.Notes)
		}
	}
	b.WriteString("\nViele Grüße\nTeam hcc-plan")
	return subject, b.String()
}

func newPasswordMail(person model.Person, projectName, password string) (subject, body string) {
	subject = fmt.Sprintf("Account bei %q Online-Planung", projectName)
	body = fmt.Sprintf(
		"Hallo %s,\n\ndein neues Passwort für den Online-Zugang lautet:\n\n%s\n\n"+
			"Viele Grüße\nTeam hcc-plan",
		person.FullName(), password)
	return subject, body
}
