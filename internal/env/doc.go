// Package env describes the environment contract read by the image
// optimizer: five optional string variables captured once at start-up into
// an immutable Record. Each value is "string or absent" and the accessors
// return (string, bool) so callers must handle the absent case before they
// can use a definite string.
package env
