// Package bucket checks that the source bucket named by the environment
// contract is reachable, either on S3 or on a local S3-compatible substitute
// when the debug flag is set.
package bucket
