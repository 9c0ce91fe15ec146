package messaging

import (
	"strings"

	"lapse-report/pkg/models"
)

const dateLayout = "Monday, January 2, 2006"

// Templates hold the follow-up wording. {{first_name}} and {{date}} are substituted.
type Templates struct {
	Present string
	Absent  string
}

// FollowUps builds a thank-you or a we-missed-you message for every active
// member with a phone number, depending on whether they attended service.
func FollowUps(service models.Service, members []models.Member, records []models.AttendanceRecord, tmpl Templates) []Message {
	attended := make(map[string]struct{})
	for _, r := range records {
		if r.ServiceID == service.ID {
			attended[r.PersonID] = struct{}{}
		}
	}
	date := service.StartsAt.Format(dateLayout)

	msgs := make([]Message, 0, len(members))
	for _, m := range members {
		if !m.IsActive || m.Phone == "" {
			continue
		}
		body := tmpl.Absent
		if _, ok := attended[m.ID]; ok {
			body = tmpl.Present
		}
		r := strings.NewReplacer("{{first_name}}", m.FirstName, "{{date}}", date)
		msgs = append(msgs, Message{PersonID: m.ID, To: m.Phone, Body: r.Replace(body)})
	}
	return msgs
}
