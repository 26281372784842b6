// Package testutil provides shared test helpers and scripted doubles used
// across the module's package tests.
package testutil
