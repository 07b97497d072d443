package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
)

func respond(w http.ResponseWriter, r *http.Request, status int, body model.ErrorBody) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	respond(w, r, http.StatusInternalServerError, model.ErrorBody{
		Message: http.StatusText(http.StatusInternalServerError),
	})
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	respond(w, r, http.StatusNotFound, model.ErrorBody{
		Message: http.StatusText(http.StatusNotFound),
	})
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	respond(w, r, status, model.ErrorBody{Message: http.StatusText(status)})
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	respond(w, r, status, model.ErrorBody{Message: errMsg})
}

// Will log a rejected request, and send a 422 response carrying
// a message for each offending field
func LogRejection(w http.ResponseWriter, r *http.Request, code string, msg string, errs map[string][]string) {
	log.WithFields(log.Fields{"errors": errs}).Debug(code + ": " + msg)
	respond(w, r, http.StatusUnprocessableEntity, model.ErrorBody{Message: msg, Errors: errs})
}
