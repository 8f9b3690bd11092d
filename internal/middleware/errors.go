package middleware

import (
	"encoding/json"
	"net/http"

	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/infrastructure"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Trace    string `json:"trace_id,omitempty"`
}

// Render writes the problem with its own status code.
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := ProblemFromStatus(status, detail, infrastructure.GetTraceID(r.Context()))
	problem.Instance = r.URL.Path
	_ = problem.Render(w, r)
}

// ProblemFromStatus creates a Problem from an HTTP status code. The types
// match the ones the API error handler emits.
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	var title, problemType string

	switch status {
	case http.StatusBadRequest:
		title = "Bad Request"
		problemType = apierrors.TypeValidation
	case http.StatusNotFound:
		title = "Not Found"
		problemType = apierrors.TypeNotFound
	case http.StatusTooManyRequests:
		title = "Too Many Requests"
		problemType = apierrors.TypeRateLimit
	case http.StatusServiceUnavailable:
		title = "Service Unavailable"
		problemType = apierrors.TypeServiceDown
	case http.StatusGatewayTimeout:
		title = "Request Timeout"
		problemType = apierrors.TypeTimeout
	default:
		title = http.StatusText(status)
		problemType = apierrors.TypeInternal
	}

	return Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}
