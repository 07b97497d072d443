package httpx

import (
	"bytes"
	"net/http"

	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
)

// GrantRecorder holds the bearer server's reply to a token grant, so that
// failures can be answered in the API's error format instead.
type GrantRecorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (g *GrantRecorder) Header() http.Header {
	if g.header == nil {
		g.header = http.Header{}
	}
	return g.header
}

func (g *GrantRecorder) Write(p []byte) (int, error) {
	if g.status == 0 {
		g.status = http.StatusOK
	}
	return g.body.Write(p)
}

func (g *GrantRecorder) WriteHeader(status int) {
	if g.status == 0 {
		g.status = status
	}
}

func (g *GrantRecorder) Status() int {
	return g.status
}

// Granted reports whether a token was issued.
func (g *GrantRecorder) Granted() bool {
	return g.status == http.StatusOK && g.body.Len() > 0
}

// Reply forwards an issued token to w, or answers 401 with code logged.
func (g *GrantRecorder) Reply(w http.ResponseWriter, r *http.Request, code string) {
	if !g.Granted() {
		log.Debugf("%s: grant refused (%d)", code, g.status)
		respond(w, r, http.StatusUnauthorized, model.ErrorBody{
			Message: http.StatusText(http.StatusUnauthorized),
		})
		return
	}
	for key, values := range g.header {
		w.Header()[key] = values
	}
	w.WriteHeader(g.status)
	w.Write(g.body.Bytes())
}
