// Package hash provides the checksum primitive used for block integrity
// verification on the transport path.
package hash
