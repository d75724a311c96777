package model

import (
	"strings"
	"time"
)

// PostTTL is the lifetime of a team post.
const PostTTL = 24 * time.Hour

// Timestamps are kept at the precision Postgres stores so every store
// returns the same instants.
const timestampPrecision = time.Microsecond

// TeamPost is a request for teammates for one event.
type TeamPost struct {
	ID             string        `json:"id"`
	EventID        string        `json:"eventId"`
	EventName      string        `json:"eventName"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	AuthorID       string        `json:"authorId"`
	Author         Author        `json:"author"`
	RequiredSkills []string      `json:"requiredSkills"`
	MaxTeamSize    int           `json:"maxTeamSize"`
	Applicants     []Application `json:"applicants"`
	CreatedAt      time.Time     `json:"createdAt"`
	ExpiresAt      time.Time     `json:"expiresAt"`
}

// Application is one user's request to join a post's team.
type Application struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	ApplicantID    string    `json:"applicantId"`
	Message        string    `json:"message"`
	RelevantSkills []string  `json:"relevantSkills"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// NewPostParams carries everything needed to build a post.
type NewPostParams struct {
	ID          string
	Event       Event
	Author      UserSummary
	Description string
	ExtraSkills []string
	Now         time.Time
}

// NewTeamPost builds a fresh post with no applicants that expires PostTTL
// after p.Now.
func NewTeamPost(p NewPostParams) (TeamPost, error) {
	description := strings.TrimSpace(p.Description)
	if description == "" {
		return TeamPost{}, NewValidationError("description", "must not be empty")
	}
	if p.Event.ID == "" {
		return TeamPost{}, NewValidationError("eventId", "must not be empty")
	}
	if p.Event.MaxTeamSize < 1 {
		return TeamPost{}, NewValidationError("maxTeamSize", "must be positive")
	}
	now := p.Now.Truncate(timestampPrecision)

	skills := make([]string, 0, len(p.Event.Skills)+len(p.ExtraSkills))
	skills = append(skills, p.Event.Skills...)
	skills = append(skills, p.ExtraSkills...)

	return TeamPost{
		ID:             p.ID,
		EventID:        p.Event.ID,
		EventName:      p.Event.Title,
		Title:          "Looking for teammates - " + p.Event.Title,
		Description:    description,
		AuthorID:       p.Author.ID,
		Author:         p.Author.Snapshot(),
		RequiredSkills: NormalizeSkills(skills),
		MaxTeamSize:    p.Event.MaxTeamSize,
		Applicants:     []Application{},
		CreatedAt:      now,
		ExpiresAt:      now.Add(PostTTL),
	}, nil
}

// IsActive reports whether now is before the expiry instant.
func (p TeamPost) IsActive(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

// CurrentTeamSize counts the author plus every applicant.
func (p TeamPost) CurrentTeamSize() int {
	return len(p.Applicants) + 1
}

// IsFull reports whether the team has reached its maximum size.
func (p TeamPost) IsFull() bool {
	return p.CurrentTeamSize() >= p.MaxTeamSize
}

// HasApplicant reports whether userID already applied.
func (p TeamPost) HasApplicant(userID string) bool {
	for _, a := range p.Applicants {
		if a.ApplicantID == userID {
			return true
		}
	}
	return false
}

// CanAccept checks whether applicantID may join at now.
func (p TeamPost) CanAccept(applicantID string, now time.Time) error {
	switch {
	case applicantID != "" && applicantID == p.AuthorID:
		return ErrSelfApply
	case !p.IsActive(now):
		return ErrPostExpired
	case p.IsFull():
		return ErrPostFull
	case p.HasApplicant(applicantID):
		return ErrAlreadyApplied
	}
	return nil
}

// Clone returns a deep copy so callers can never alias stored slices.
func (p TeamPost) Clone() TeamPost {
	out := p
	out.RequiredSkills = cloneStrings(p.RequiredSkills)
	out.Author.Badges = cloneStrings(p.Author.Badges)
	out.Applicants = make([]Application, len(p.Applicants))
	for i, a := range p.Applicants {
		a.RelevantSkills = cloneStrings(a.RelevantSkills)
		out.Applicants[i] = a
	}
	return out
}

// NewApplication validates and builds an application for postID.
func NewApplication(id, postID, applicantID, message string, skills []string, now time.Time) (Application, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Application{}, NewValidationError("message", "must not be empty")
	}
	if applicantID == "" {
		return Application{}, NewValidationError("applicantId", "must not be empty")
	}
	return Application{
		ID:             id,
		PostID:         postID,
		ApplicantID:    applicantID,
		Message:        message,
		RelevantSkills: NormalizeSkills(skills),
		SubmittedAt:    now.Truncate(timestampPrecision),
	}, nil
}

// NormalizeSkills trims entries, drops blanks and removes case-sensitive
// duplicates, keeping first occurrence order. Never returns nil.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
