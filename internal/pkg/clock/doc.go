// Package clock provides a tiny time abstraction.
//
// Code that derives values from wall-clock time (one-time codes, session
// expiry) depends on Clocker so tests can pin the instant with Manual.
package clock
