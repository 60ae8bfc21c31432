// Package otp derives time-based one-time passwords (RFC 6238) from base32
// shared secrets using github.com/pquerna/otp.
package otp
