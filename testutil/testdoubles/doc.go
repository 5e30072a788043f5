// Package testdoubles provides spies and fault injecting stores for testing the library services.
//
// The spies capture log records, metrics and spans so tests can assert the observability output
// of an operation. FaultyStore wraps any library.Store and injects lost races, driver failures
// and failed commits into chosen writes.
package testdoubles
