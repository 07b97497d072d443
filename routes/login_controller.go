package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// grantRequest rewrites r into the form post the bearer server expects.
func grantRequest(r *http.Request, body url.Values) *http.Request {
	encoded := body.Encode()
	req := r.Clone(r.Context())
	req.Body = io.NopCloser(strings.NewReader(encoded))
	req.ContentLength = int64(len(encoded))
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(encoded)))
	req.Header.Del("authorization")
	return req
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		var grant httpx.GrantRecorder
		app.UserCredentials(&grant, grantRequest(r, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}))
		grant.Reply(w, r, "login.rejected")
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		var grant httpx.GrantRecorder
		app.UserCredentials(&grant, grantRequest(r, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}))
		grant.Reply(w, r, "refresh.rejected")
	}
}
