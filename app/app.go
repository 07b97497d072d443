package app

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/go-chi/oauth"
	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/config"
	"github.com/mbolis/quick-event/datasource"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	DataSources *datasource.Service
	Google      *oauth2.Config
	Validate    *validator.Validate
}

// NewValidator reports struct errors under the JSON names of the fields.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
