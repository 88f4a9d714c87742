// Package sqlstore keeps calibrations in a SQL catalog so that several hosts can share them.
// The catalog holds the latest pushed calibrations and a history of sync snapshots.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/segmentio/ksuid"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/pulse"

	_ "github.com/lib/pq"
	_ "github.com/proullon/ramsql/driver"
)

const (
	// DriverPostgres is the driver name of github.com/lib/pq.
	DriverPostgres = "postgres"
	// DriverRamSQL is the driver name of the in-memory github.com/proullon/ramsql engine.
	DriverRamSQL = "ramsql"
)

// ErrNoSnapshot is returned by Pull when nothing was pushed to the catalog yet.
var ErrNoSnapshot = errors.New("catalog has no calibration snapshot")

// TransactionLogic runs inside a catalog transaction.
type TransactionLogic func(ctx context.Context, db DB) error

// Snapshot describes one Push to the catalog.
type Snapshot struct {
	ID             string
	SchemaVersion  string
	BackendName    string
	BackendVersion string
	NumSchedules   int
	NumParameters  int
	CreatedAt      time.Time
}

type options struct {
	createSchema bool
	attempts     uint
	delay        time.Duration
	lggr         logger.Logger
	now          func() time.Time
}

// Option configures a Catalog.
type Option func(*options)

// WithCreateSchema creates the catalog tables when they do not exist.
func WithCreateSchema() Option {
	return func(o *options) { o.createSchema = true }
}

// WithConnectAttempts sets how many times the database is pinged before giving up. attempts
// must be at least 1.
func WithConnectAttempts(attempts uint, delay time.Duration) Option {
	return func(o *options) {
		o.attempts = attempts
		o.delay = delay
	}
}

// WithLogger sets the logger of the catalog.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) { o.lggr = lggr }
}

// WithClock overrides the clock used to timestamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Catalog is a SQL backed calibration catalog. A Catalog serializes its own transactions but
// does not coordinate with other processes writing to the same database.
type Catalog struct {
	mu   sync.Mutex
	db   *dbController
	lggr logger.Logger
	now  func() time.Time
}

// Open connects to the database described by driver and dsn, retrying the initial ping.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Catalog, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s catalog: %w", driver, err)
	}

	c, err := New(ctx, db, opts...)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return c, nil
}

// New creates a catalog on top of an open database.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Catalog, error) {
	o := options{
		attempts: 5,
		delay:    200 * time.Millisecond,
		lggr:     logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	// retry-go treats zero attempts as retrying until the context is done
	if o.attempts == 0 {
		return nil, errors.New("catalog connect attempts must be at least 1")
	}
	lggr := o.lggr.Named("sqlstore")

	err := retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(o.attempts),
		retry.Delay(o.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			lggr.Warnw("Catalog database is not reachable, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	c := &Catalog{db: newDBController(db, lggr), lggr: lggr, now: o.now}
	if o.createSchema {
		for _, s := range schemas {
			if err = c.db.Fixture(ctx, s.ddl); err != nil {
				return nil, fmt.Errorf("failed to create %s schema: %w", s.table, err)
			}
		}
	}

	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.base.Close()
}

// WithTransaction runs fn inside a transaction which is committed when fn returns nil and
// rolled back otherwise.
func (c *Catalog) WithTransaction(ctx context.Context, fn TransactionLogic) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.withTransactionLocked(ctx, fn)
}

func (c *Catalog) withTransactionLocked(ctx context.Context, fn TransactionLogic) (err error) {
	err = c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var txerr error
	defer func() {
		if r := recover(); r != nil {
			// rollback before re-panicking
			_ = c.db.Rollback()
			panic(r)
		} else if txerr != nil {
			err = errors.Join(err, c.db.Rollback())
		} else {
			err = c.db.Commit()
		}
	}()

	txerr = fn(ctx, c.db)

	return txerr
}

const (
	stmt_INSERT_SNAPSHOT = `
		INSERT INTO sync_snapshots (id, schema_version, backend_name, backend_version, backend,
			num_schedules, num_parameters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	stmt_INSERT_SCHEDULE = `
		INSERT INTO schedule_templates (position, schedule_name, qubits, num_qubits, payload)
		VALUES ($1, $2, $3, $4, $5)`
	stmt_INSERT_REGISTERED = `
		INSERT INTO registered_parameters (position, param_name, qubits, schedule_name)
		VALUES ($1, $2, $3, $4)`
	stmt_INSERT_VALUE = `
		INSERT INTO parameter_values (position, param_name, qubits, schedule_name, param_value,
			group_name, is_valid, date_time, exp_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	query_ALL_SNAPSHOTS = `
		SELECT id, schema_version, backend_name, backend_version, num_schedules, num_parameters, created_at
		FROM sync_snapshots`
	query_SNAPSHOT_BACKEND = `
		SELECT backend FROM sync_snapshots WHERE id = $1`
	query_ALL_SCHEDULES = `
		SELECT position, schedule_name, qubits, num_qubits, payload FROM schedule_templates`
	query_ALL_REGISTERED = `
		SELECT position, param_name, qubits, schedule_name FROM registered_parameters`
	query_ALL_VALUES = `
		SELECT position, param_name, qubits, schedule_name, param_value, group_name, is_valid, date_time, exp_id
		FROM parameter_values`
)

// backendJSON is the part of the backend description that has no column of its own.
type backendJSON struct {
	CouplingMap     [][2]int         `json:"device_coupling_graph"`
	ControlChannels map[string][]int `json:"control_channel_map"`
}

// Push replaces the calibrations held by the catalog with store and records a snapshot. It
// returns the snapshot id.
func (c *Catalog) Push(ctx context.Context, store calibration.CalibrationStore) (string, error) {
	model, err := calibration.ToModel(store, false)
	if err != nil {
		return "", err
	}
	backend, err := json.Marshal(backendJSON{
		CouplingMap:     model.DeviceCouplingGraph,
		ControlChannels: model.ControlChannelMap,
	})
	if err != nil {
		return "", err
	}

	id := ksuid.New().String()
	err = c.WithTransaction(ctx, func(ctx context.Context, db DB) error {
		for _, table := range []string{"schedule_templates", "registered_parameters", "parameter_values"} {
			if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for i, s := range model.Schedules {
			if _, err := db.ExecContext(ctx, stmt_INSERT_SCHEDULE,
				i, s.Name, qubitsJSON(s.Qubits), s.NumQubits, s.Payload); err != nil {
				return fmt.Errorf("failed to insert schedule %s: %w", s.Name, err)
			}
		}
		for i, r := range model.RegisteredParameters {
			if _, err := db.ExecContext(ctx, stmt_INSERT_REGISTERED,
				i, r.ParamName, qubitsJSON(r.Qubits), r.Schedule); err != nil {
				return fmt.Errorf("failed to insert registration of %s: %w", r.ParamName, err)
			}
		}
		for i, p := range model.Parameters {
			value, err := json.Marshal(p.Value)
			if err != nil {
				return err
			}
			valid := 0
			if p.Valid {
				valid = 1
			}
			if _, err := db.ExecContext(ctx, stmt_INSERT_VALUE,
				i, p.ParamName, qubitsJSON(p.Qubits), p.Schedule, string(value), p.Group, valid, p.DateTime, p.ExpID); err != nil {
				return fmt.Errorf("failed to insert value of %s: %w", p.ParamName, err)
			}
		}

		_, err := db.ExecContext(ctx, stmt_INSERT_SNAPSHOT,
			id, model.SchemaVersion, model.BackendName, model.BackendVersion, string(backend),
			len(model.Schedules), len(model.Parameters), c.now().UTC().Format(time.RFC3339Nano))

		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to push calibrations: %w", err)
	}

	c.lggr.Infow("Calibrations pushed to catalog",
		"snapshot", id, "schedules", len(model.Schedules), "parameters", len(model.Parameters))

	return id, nil
}

// Snapshots returns the snapshots recorded by Push, oldest first.
func (c *Catalog) Snapshots(ctx context.Context) ([]Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotsLocked(ctx)
}

func (c *Catalog) snapshotsLocked(ctx context.Context) ([]Snapshot, error) {
	var snapshots []Snapshot
	err := scanAll(ctx, c.db, query_ALL_SNAPSHOTS, func(rows *sql.Rows) error {
		var (
			s         Snapshot
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.SchemaVersion, &s.BackendName, &s.BackendVersion,
			&s.NumSchedules, &s.NumParameters, &createdAt); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return fmt.Errorf("snapshot %s: invalid created_at %q: %w", s.ID, createdAt, err)
		}
		s.CreatedAt = t
		snapshots = append(snapshots, s)

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}

		return compareKSUID(a.ID, b.ID)
	})

	return snapshots, nil
}

func compareKSUID(a, b string) int {
	ka, errA := ksuid.Parse(a)
	kb, errB := ksuid.Parse(b)
	if errA != nil || errB != nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}

	return ksuid.Compare(ka, kb)
}

// Pull reads the calibrations last pushed to the catalog.
func (c *Catalog) Pull(ctx context.Context, opts ...calibration.Option) (*calibration.Calibrations, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshots, err := c.snapshotsLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshot
	}
	latest := snapshots[len(snapshots)-1]

	model := calibration.CalibrationModelV1{
		SchemaVersion:  latest.SchemaVersion,
		BackendName:    latest.BackendName,
		BackendVersion: latest.BackendVersion,
	}

	err = scanAll(ctx, c.db, query_SNAPSHOT_BACKEND, func(rows *sql.Rows) error {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var b backendJSON
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return fmt.Errorf("invalid backend description: %w", err)
		}
		model.DeviceCouplingGraph = b.CouplingMap
		model.ControlChannelMap = b.ControlChannels

		return nil
	}, latest.ID)
	if err != nil {
		return nil, err
	}

	var schedulePos, registeredPos, valuePos []int
	err = scanAll(ctx, c.db, query_ALL_SCHEDULES, func(rows *sql.Rows) error {
		var (
			pos    int
			s      calibration.ScheduleModel
			qubits string
		)
		if err := rows.Scan(&pos, &s.Name, &qubits, &s.NumQubits, &s.Payload); err != nil {
			return err
		}
		var err error
		if s.Qubits, err = parseQubitsJSON(qubits); err != nil {
			return err
		}
		schedulePos = append(schedulePos, pos)
		model.Schedules = append(model.Schedules, s)

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, c.db, query_ALL_REGISTERED, func(rows *sql.Rows) error {
		var (
			pos    int
			r      calibration.ParameterKeyModel
			qubits string
		)
		if err := rows.Scan(&pos, &r.ParamName, &qubits, &r.Schedule); err != nil {
			return err
		}
		var err error
		if r.Qubits, err = parseQubitsJSON(qubits); err != nil {
			return err
		}
		registeredPos = append(registeredPos, pos)
		model.RegisteredParameters = append(model.RegisteredParameters, r)

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, c.db, query_ALL_VALUES, func(rows *sql.Rows) error {
		var (
			pos           int
			p             calibration.ParameterValueModel
			qubits, value string
			valid         int
		)
		if err := rows.Scan(&pos, &p.ParamName, &qubits, &p.Schedule, &value,
			&p.Group, &valid, &p.DateTime, &p.ExpID); err != nil {
			return err
		}
		var err error
		if p.Qubits, err = parseQubitsJSON(qubits); err != nil {
			return err
		}
		var v pulse.Value
		if err = json.Unmarshal([]byte(value), &v); err != nil {
			return fmt.Errorf("invalid value of %s: %w", p.ParamName, err)
		}
		p.Value = v
		p.Valid = valid != 0
		valuePos = append(valuePos, pos)
		model.Parameters = append(model.Parameters, p)

		return nil
	})
	if err != nil {
		return nil, err
	}

	model.Schedules = byPosition(model.Schedules, schedulePos)
	model.RegisteredParameters = byPosition(model.RegisteredParameters, registeredPos)
	model.Parameters = byPosition(model.Parameters, valuePos)

	cals, err := calibration.FromModel(model, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild calibrations from snapshot %s: %w", latest.ID, err)
	}

	c.lggr.Infow("Calibrations pulled from catalog", "snapshot", latest.ID)

	return cals, nil
}

func scanAll(ctx context.Context, db DB, q string, scan func(rows *sql.Rows) error, args ...any) (err error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		if err = scan(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

// byPosition orders records by their stored position.
func byPosition[T any](records []T, positions []int) []T {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return positions[a] - positions[b] })

	out := make([]T, len(records))
	for i, j := range idx {
		out[i] = records[j]
	}

	return out
}

func qubitsJSON(q calibration.Qubits) string {
	b, _ := json.Marshal(q)
	return string(b)
}

func parseQubitsJSON(s string) (calibration.Qubits, error) {
	var q calibration.Qubits
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		return nil, fmt.Errorf("invalid qubits %q: %w", s, err)
	}

	return q, nil
}
