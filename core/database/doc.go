// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure the library database.
// The default driver is SQLite, a single local file per device; MySQL is
// supported for deployments that keep the library on a shared host.
//
// # Connect
//
// The Connect function establishes a connection based on the configured
// driver. Schema creation itself is owned by the model store, which
// migrates one table per entity kind plus the change-log tables.
//
// # Schema Inspection
//
// The package includes tools to inspect the resulting schema, used to
// verify after migration that every entity table actually exists. It
// handles the dialect split between SQLite (PRAGMA table_info) and MySQL
// (SHOW COLUMNS).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "artists")
package database
