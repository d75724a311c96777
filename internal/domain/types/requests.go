package types

// CreatePostRequest is the body of POST /api/posts/team-finding.
type CreatePostRequest struct {
	EventID     string   `json:"eventId"`
	Description string   `json:"description"`
	ExtraSkills []string `json:"extraSkills"`
}

// ApplicationRequest is the body of POST /api/beacon/{postId}/applications.
type ApplicationRequest struct {
	Message         string   `json:"message"`
	ApplicantSkills []string `json:"applicantSkills"`
}

// CreateEventRequest is the body of POST /api/events.
type CreateEventRequest struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Skills       []string `json:"skills"`
	MaxTeamSize  int      `json:"maxTeamSize"`
	ExternalLink string   `json:"externalLink,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried by ErrorResponse.Code.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodePostFull       = "post_full"
	CodePostExpired    = "post_expired"
	CodeAlreadyApplied = "already_applied"
	CodeSelfApply      = "self_apply"
	CodeConflict       = "conflict"
	CodeInternal       = "internal_error"
)
