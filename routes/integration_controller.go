package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
)

func GoogleAuthURL(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.Google == nil || app.Google.ClientID == "" {
			httpx.LogStatusMsg(w, r, http.StatusNotImplemented, log.WarnLevel, "google.auth_url", "Google integration is not configured")
			return
		}

		state := r.URL.Query().Get("state")
		if state == "" {
			httpx.LogRejection(w, r, "google.auth_url.state", "Missing state.", map[string][]string{
				"state": {"is required"},
			})
			return
		}

		render.JSON(w, r, map[string]any{
			"url": app.Google.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce),
		})
	}
}

// GoogleToken trades an authorization code for tokens, keeping the client
// secret on the server.
func GoogleToken(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.Google == nil || app.Google.ClientID == "" {
			httpx.LogStatusMsg(w, r, http.StatusNotImplemented, log.WarnLevel, "google.token", "Google integration is not configured")
			return
		}

		body := struct {
			Code string `json:"code"`
		}{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.Code == "" {
			httpx.LogRejection(w, r, "google.token.code", "Missing authorization code.", map[string][]string{
				"code": {"is required"},
			})
			return
		}

		token, err := app.Google.Exchange(r.Context(), body.Code)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadGateway, log.WarnLevel, "google.token.exchange", "Could not exchange the authorization code: %s", err)
			return
		}

		render.JSON(w, r, token)
	}
}
