package datasource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/model"
)

var (
	ErrNotFound  = errors.New("data source not found")
	ErrDuplicate = errors.New("data source already exists for this event and form")
)

// Store persists data sources and their sync runs.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

func (s *Store) Create(ctx context.Context, ds model.DataSource) (model.DataSource, error) {
	configJson, err := json.Marshal(ds.Config)
	if err != nil {
		return ds, err
	}
	mappingJson, err := json.Marshal(ds.FieldMapping)
	if err != nil {
		return ds, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO data_source (
			event_id, name, type, form_id, config,
			field_mapping, sync_method, sync_schedule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		ds.EventID, ds.Name, ds.Type, ds.Config.FormID, string(configJson),
		string(mappingJson), ds.SyncMethod, ds.SyncSchedule,
	).Scan(&ds.ID)
	if database.IsUniqueViolation(err) {
		return ds, ErrDuplicate
	}
	return ds, err
}

const selectDataSource = `
	SELECT
		id, event_id, name, type, config, field_mapping,
		sync_method, sync_schedule, last_sync_at, last_status
	FROM data_source`

func (s *Store) Get(ctx context.Context, id int64) (model.DataSource, error) {
	list, err := s.query(ctx, selectDataSource+" WHERE id = ?", id)
	if err != nil {
		return model.DataSource{}, err
	}
	if len(list) == 0 {
		return model.DataSource{}, ErrNotFound
	}
	return list[0], nil
}

func (s *Store) List(ctx context.Context) ([]model.DataSource, error) {
	return s.query(ctx, selectDataSource+" ORDER BY id")
}

func (s *Store) ListByEvent(ctx context.Context, eventID int64) ([]model.DataSource, error) {
	return s.query(ctx, selectDataSource+" WHERE event_id = ? ORDER BY id", eventID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]model.DataSource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.DataSource{}
	for rows.Next() {
		ds := model.DataSource{}
		var configJson, mappingJson string
		var lastSync sql.NullTime
		err = rows.Scan(
			&ds.ID, &ds.EventID, &ds.Name, &ds.Type, &configJson, &mappingJson,
			&ds.SyncMethod, &ds.SyncSchedule, &lastSync, &ds.LastStatus,
		)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(configJson), &ds.Config); err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(mappingJson), &ds.FieldMapping); err != nil {
			return nil, err
		}
		if lastSync.Valid {
			t := lastSync.Time
			ds.LastSyncAt = &t
		}
		list = append(list, ds)
	}
	return list, rows.Err()
}

// SaveConfig stores refreshed OAuth tokens.
func (s *Store) SaveConfig(ctx context.Context, id int64, cfg model.DataSourceConfig) error {
	configJson, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "UPDATE data_source SET config = ? WHERE id = ?", string(configJson), id)
	return err
}

func (s *Store) startRun(ctx context.Context, dsID int64, runID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_run (id, data_source_id, started_at, status)
		VALUES (?, ?, ?, ?)`,
		runID, dsID, at, model.SyncProcessing,
	)
	return err
}

func (s *Store) finishRun(ctx context.Context, dsID int64, res model.SyncResult, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE sync_run SET
			finished_at = ?,
			status = ?,
			processed = ?,
			created = ?,
			updated = ?,
			message = ?
		WHERE id = ?`,
		at, res.Status, res.Processed, res.Created, res.Updated, res.Message,
		res.RunID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE data_source SET last_sync_at = ?, last_status = ?
		WHERE id = ?`,
		at, res.Status, dsID,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
