package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/crewcall/internal/models"
)

// Color constants for attachment severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// helpText is the usage response for unrecognized idle input.
func helpText() string {
	return "**Crewcall Commands**\n" +
		"`start-profile` — Build your profile step by step\n" +
		"`schedule` — Show upcoming shifts\n" +
		"`announce` — Post the next shift announcement (operator only)\n" +
		"`cancel` — Abort an in-progress flow\n\n" +
		"While building a profile, just answer the questions."
}

// startText introduces the profile flow before the first prompt.
func startText(firstPrompt string) string {
	return "Let's build your profile. Send `cancel` at any time to stop.\n\n" + firstPrompt
}

// repromptText combines a rejection reason with the original prompt.
func repromptText(reason, prompt string) string {
	return fmt.Sprintf("Sorry, %s\n%s", reason, prompt)
}

// retriesExhaustedText reports a flow cancelled by the retry cap.
func retriesExhaustedText(field string) string {
	return fmt.Sprintf("Too many invalid answers for %s — profile creation cancelled. Send `start-profile` to try again.", field)
}

// summaryText renders the collected fields for confirmation.
func summaryText(values []FieldValue) string {
	var b strings.Builder
	b.WriteString("Here's your profile:\n")
	for _, fv := range values {
		v := fv.Value
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "  %s: %s\n", fv.Name, v)
	}
	b.WriteString("\nSend `yes` to save it, or `cancel` to discard.")
	return b.String()
}

// profileSavedText confirms a persisted profile.
func profileSavedText(name string) string {
	return fmt.Sprintf("Profile saved. Welcome aboard, %s!", name)
}

// cancelledText confirms an aborted flow.
func cancelledText() string {
	return "Profile creation cancelled. Nothing was saved."
}

// noActiveFlowText is the corrective message for cancel with no flow.
func noActiveFlowText() string {
	return "There's nothing to cancel right now."
}

// forbiddenText is the rejection for unauthorized operator commands.
func forbiddenText() string {
	return "Sorry, only the operator can publish announcements."
}

// transientFailureText asks the user to retry after a collaborator failure.
func transientFailureText(what string) string {
	return fmt.Sprintf("Couldn't %s right now — please try again in a moment.", what)
}

// scheduleText formats upcoming shifts as an aligned table.
func scheduleText(shifts []models.Shift, ref time.Time) string {
	if len(shifts) == 0 {
		return "No upcoming shifts on the schedule."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Upcoming shifts** (%d)\n", len(shifts))
	fmt.Fprintf(&b, "%-17s %-7s %-12s %s\n", "START", "END", "LOCATION", "STATUS")
	for _, s := range shifts {
		fmt.Fprintf(&b, "%-17s %-7s %-12s %s\n",
			s.StartsAt.Format("Mon Jan 2 15:04"),
			s.EndsAt.Format("15:04"),
			s.Location,
			s.Status)
	}
	return b.String()
}

// announcementBody renders the announcement text for a shift.
func announcementBody(s *models.Shift) string {
	return fmt.Sprintf("We're on at %s, %s–%s.",
		s.Location,
		s.StartsAt.Format("Mon Jan 2 15:04"),
		s.EndsAt.Format("15:04"))
}

// announcementAttachment builds the structured attachment for a shift
// announcement.
func announcementAttachment(s *models.Shift) Attachment {
	return Attachment{
		Title:    "Upcoming shift",
		Body:     announcementBody(s),
		Severity: "info",
		Color:    severityColor("info"),
		Fields: []Field{
			{Name: "Location", Value: s.Location, Short: true},
			{Name: "Starts", Value: s.StartsAt.Format("Mon Jan 2 15:04"), Short: true},
		},
	}
}
