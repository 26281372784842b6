/*
Package store persists analyses, storyboards, scenes, style presets, and
production requests through GORM.

The store speaks the domain types at its boundary and keeps the record
structs private to the schema. SQLite (pure Go driver), PostgreSQL, and
MySQL are supported; tests run on in-memory SQLite. Scene attempt counts
are advanced inside the UPDATE itself so concurrent refinements cannot
lose an increment.
*/
package store
