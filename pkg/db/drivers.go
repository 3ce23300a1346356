package db

const (
	// DriverSQLite is the modernc.org/sqlite driver name.
	DriverSQLite = "sqlite"
	// DriverPostgres is the lib/pq driver name.
	DriverPostgres = "postgres"
)
