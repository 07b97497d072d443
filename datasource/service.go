package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/metrics"
	"github.com/mbolis/quick-event/model"
	"github.com/mbolis/quick-event/wizard"
)

// Fetcher reads the responses of an external form; *GoogleForms satisfies it.
type Fetcher interface {
	Responses(ctx context.Context, token *oauth2.Token, formID string) ([]Response, *oauth2.Token, error)
}

// Service imports external form responses as attendees.
type Service struct {
	*Store
	db    *sql.DB
	forms Fetcher
	now   func() time.Time

	mu      sync.Mutex
	running map[int64]bool
}

func NewService(db *sql.DB, forms Fetcher) *Service {
	return &Service{
		Store:   NewStore(db),
		db:      db,
		forms:   forms,
		now:     time.Now,
		running: map[int64]bool{},
	}
}

// DataSources lists every data source.
func (s *Service) DataSources(ctx context.Context) ([]model.DataSource, error) {
	return s.List(ctx)
}

// Validate checks a data source before it is created.
func Validate(ds model.DataSource) map[string][]string {
	errs := map[string][]string{}
	if ds.EventID <= 0 {
		errs["event_id"] = append(errs["event_id"], "is required")
	}
	if strings.TrimSpace(ds.Name) == "" {
		errs["name"] = append(errs["name"], "is required")
	}
	if ds.Type != model.DataSourceGoogleForms {
		errs["type"] = append(errs["type"], "is not supported")
	}
	if ds.Config.FormID == "" {
		errs["config.form_id"] = append(errs["config.form_id"], "is required")
	}
	if !ds.SyncMethod.Valid() {
		errs["sync_method"] = append(errs["sync_method"], "is not supported")
	}
	if ds.SyncMethod == model.SyncScheduled && !validSchedule(ds.SyncSchedule) {
		errs["sync_schedule"] = append(errs["sync_schedule"], "must be one of "+strings.Join(wizard.Schedules, ", "))
	}

	mapping := wizard.Mapping{}
	for k, v := range ds.FieldMapping {
		f := wizard.InternalField(k)
		if !f.Valid() {
			errs["field_mapping"] = append(errs["field_mapping"], "unknown field "+k)
			continue
		}
		mapping[f] = v
	}
	if !wizard.IsMappingValid(mapping) {
		errs["field_mapping"] = append(errs["field_mapping"], "name and email must be mapped to distinct fields")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validSchedule(s string) bool {
	for _, known := range wizard.Schedules {
		if s == known {
			return true
		}
	}
	return false
}

func (s *Service) acquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return false
	}
	s.running[id] = true
	return true
}

func (s *Service) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// Sync imports every response of a data source. A sync already running for
// the same source is not repeated: the result reports it as processing.
func (s *Service) Sync(ctx context.Context, id int64) (model.SyncResult, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return model.SyncResult{}, err
	}

	if !s.acquire(id) {
		return model.SyncResult{Status: model.SyncProcessing, Message: "sync already running"}, nil
	}
	defer s.release(id)

	res := model.SyncResult{RunID: uuid.NewString()}
	if err = s.startRun(ctx, id, res.RunID, s.now().UTC()); err != nil {
		return res, fmt.Errorf("start sync run: %w", err)
	}

	s.importResponses(ctx, ds, &res)

	metrics.SyncRuns.WithLabelValues(string(res.Status)).Inc()
	log.WithFields(log.Fields{
		"data_source": id,
		"run":         res.RunID,
		"status":      res.Status,
		"processed":   res.Processed,
		"created":     res.Created,
		"updated":     res.Updated,
	}).Info("datasource.sync")

	if err = s.finishRun(ctx, id, res, s.now().UTC()); err != nil {
		return res, fmt.Errorf("finish sync run: %w", err)
	}
	return res, nil
}

func (s *Service) importResponses(ctx context.Context, ds model.DataSource, res *model.SyncResult) {
	token := &oauth2.Token{
		AccessToken:  ds.Config.AccessToken,
		RefreshToken: ds.Config.RefreshToken,
		Expiry:       ds.Config.TokenExpiry,
	}
	responses, current, err := s.forms.Responses(ctx, token, ds.Config.FormID)
	if err != nil {
		res.Status = model.SyncFailed
		res.Message = err.Error()
		return
	}

	if current != nil && current.AccessToken != token.AccessToken {
		cfg := ds.Config
		cfg.AccessToken = current.AccessToken
		cfg.TokenExpiry = current.Expiry
		if current.RefreshToken != "" {
			cfg.RefreshToken = current.RefreshToken
		}
		if err = s.SaveConfig(ctx, ds.ID, cfg); err != nil {
			log.Warnf("datasource.sync.save_token: %s", err)
		}
	}

	var failed []string
	for _, r := range responses {
		res.Processed++

		a, err := Attendee(ds, r)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", r.ID, err))
			metrics.SyncedAttendees.WithLabelValues("failed").Inc()
			continue
		}

		created, err := database.UpsertAttendee(ctx, s.db, &a)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", r.ID, err))
			metrics.SyncedAttendees.WithLabelValues("failed").Inc()
			continue
		}
		if created {
			res.Created++
			metrics.SyncedAttendees.WithLabelValues("created").Inc()
		} else {
			res.Updated++
			metrics.SyncedAttendees.WithLabelValues("updated").Inc()
		}
	}

	switch {
	case len(failed) == 0:
		res.Status = model.SyncSuccess
	case res.Created+res.Updated == 0:
		res.Status = model.SyncFailed
	default:
		res.Status = model.SyncPartial
	}
	if len(failed) > 0 {
		res.Message = fmt.Sprintf("%d of %d responses failed: %s", len(failed), res.Processed, strings.Join(failed, "; "))
	}
}

var ErrNoEmail = errors.New("response has no email")

// Attendee builds the attendee a response describes, following the field
// mapping of ds. Answers to unmapped questions land in custom data.
func Attendee(ds model.DataSource, r Response) (model.Attendee, error) {
	a := model.Attendee{
		EventID:      ds.EventID,
		Source:       ds.Type,
		RegisteredAt: r.SubmittedAt,
	}

	answer := func(f wizard.InternalField) string {
		q := ds.FieldMapping[string(f)]
		if q == "" {
			return ""
		}
		return strings.TrimSpace(r.Answers[q])
	}

	a.Email = answer(wizard.FieldEmail)
	if a.Email == "" {
		a.Email = strings.TrimSpace(r.RespondentEmail)
	}
	if a.Email == "" {
		return a, ErrNoEmail
	}
	a.Email = strings.ToLower(a.Email)

	if name := strings.Fields(answer(wizard.FieldName)); len(name) > 0 {
		a.FirstName = name[0]
		a.LastName = strings.Join(name[1:], " ")
	}
	a.Phone = answer(wizard.FieldPhone)
	a.TicketType = answer(wizard.FieldTicketType)
	a.Company = answer(wizard.FieldCompany)
	a.Position = answer(wizard.FieldPosition)
	a.Notes = answer(wizard.FieldNotes)

	mapped := map[string]bool{}
	for _, q := range ds.FieldMapping {
		mapped[q] = true
	}
	for q, v := range r.Answers {
		if mapped[q] {
			continue
		}
		if a.CustomData == nil {
			a.CustomData = map[string]any{}
		}
		a.CustomData[q] = v
	}
	return a, nil
}
