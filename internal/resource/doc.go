// Package resource provides memory accounting and transport throttling
// shared by all operations of a cache instance.
package resource
