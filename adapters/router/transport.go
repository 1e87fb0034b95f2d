package profilerouter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
	"github.com/goliatone/go-router"
)

// ProfileResponse is the GET /api/profile payload.
type ProfileResponse struct {
	Snapshot profile.Snapshot `json:"snapshot"`
	HasError bool             `json:"hasError"`
	Failed   []string         `json:"failed,omitempty"`
	Order    []string         `json:"order"`
	Formats  []profile.Format `json:"formats"`
}

// HealthResponse is the GET /healthz payload.
type HealthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	HasError bool   `json:"hasError"`
}

// HistoryResponse lists recent exports.
type HistoryResponse struct {
	Exports []profile.ExportRecord `json:"exports"`
}

// InstallResponse is the banner status after an install attempt.
type InstallResponse struct {
	service.BannerStatus
	Accepted bool `json:"accepted"`
}

// ErrorResponse wraps API errors.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Category string `json:"category,omitempty"`
}

func sessionID(c router.Context, cookieName string) string {
	if id := strings.TrimSpace(c.Header(SessionHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Cookies(cookieName)); id != "" {
		return id
	}
	raw := c.Header("Cookie")
	if raw == "" {
		return ""
	}
	req := http.Request{Header: http.Header{"Cookie": []string{raw}}}
	cookie, err := req.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(c router.Context, name, id string) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetHeader("Set-Cookie", cookie.String())
	c.SetHeader(SessionHeader, id)
}

func writeError(c router.Context, err error) error {
	if err == nil {
		return c.NoContent(http.StatusNoContent)
	}
	ge := profile.AsGoError(err)
	return c.JSON(statusForError(ge), ErrorResponse{
		Error: ErrorBody{
			Message:  ge.Message,
			Code:     ge.TextCode,
			Category: fmt.Sprint(ge.Category),
		},
	})
}

func statusForError(err *errors.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.TextCode == "not_implemented" {
		return http.StatusNotImplemented
	}
	switch err.Category {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryOperation:
		if err.TextCode == "canceled" {
			return http.StatusConflict
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
