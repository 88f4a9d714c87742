package sqlstore

// The schema only uses TEXT and BIGINT columns so that it runs unchanged on postgres and on
// the in-memory ramsql engine. Qubits and values are stored in their JSON form.
const (
	sCHEMA_SYNC_SNAPSHOTS = `
		CREATE TABLE IF NOT EXISTS sync_snapshots (
			id                 TEXT PRIMARY KEY,
			schema_version     TEXT,
			backend_name       TEXT,
			backend_version    TEXT,
			backend            TEXT,
			num_schedules      BIGINT,
			num_parameters     BIGINT,
			created_at         TEXT
		);`

	sCHEMA_SCHEDULE_TEMPLATES = `
		CREATE TABLE IF NOT EXISTS schedule_templates (
			position           BIGINT,
			schedule_name      TEXT,
			qubits             TEXT,
			num_qubits         BIGINT,
			payload            TEXT
		);`

	sCHEMA_REGISTERED_PARAMETERS = `
		CREATE TABLE IF NOT EXISTS registered_parameters (
			position           BIGINT,
			param_name         TEXT,
			qubits             TEXT,
			schedule_name      TEXT
		);`

	sCHEMA_PARAMETER_VALUES = `
		CREATE TABLE IF NOT EXISTS parameter_values (
			position           BIGINT,
			param_name         TEXT,
			qubits             TEXT,
			schedule_name      TEXT,
			param_value        TEXT,
			group_name         TEXT,
			is_valid           BIGINT,
			date_time          TEXT,
			exp_id             TEXT
		);`
)

var schemas = []struct {
	table string
	ddl   string
}{
	{table: "sync_snapshots", ddl: sCHEMA_SYNC_SNAPSHOTS},
	{table: "schedule_templates", ddl: sCHEMA_SCHEDULE_TEMPLATES},
	{table: "registered_parameters", ddl: sCHEMA_REGISTERED_PARAMETERS},
	{table: "parameter_values", ddl: sCHEMA_PARAMETER_VALUES},
}
