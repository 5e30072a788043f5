// Package config provides database configuration for the PostgreSQL integration tests.
//
// The DSN is read from LIBRARY_TEST_DSN and defaults to a local test database.
package config
