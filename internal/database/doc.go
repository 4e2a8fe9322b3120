// Package database manages the SQLite reconstruction database that feature
// extraction and matching populate and the mapper consumes. It owns the
// schema, the connection pragmas, and the pair identifier encoding shared by
// the matches and two-view geometry tables.
package database
