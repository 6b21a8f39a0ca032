// Package testutil provides deterministic payload generation for tests.
package testutil
