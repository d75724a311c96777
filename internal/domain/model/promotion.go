package model

import "time"

// PodEvent announces that a post gained an applicant and may be promoted
// into a collaboration pod by the pods service.
type PodEvent struct {
	PostID         string    `json:"postId"`
	EventID        string    `json:"eventId"`
	ApplicantID    string    `json:"applicantId"`
	ApplicantCount int       `json:"applicantCount"`
	TeamSize       int       `json:"teamSize"`
	MaxTeamSize    int       `json:"maxTeamSize"`
	OccurredAt     time.Time `json:"occurredAt"`
}
