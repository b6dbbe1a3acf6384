// Package application is the composition root. It loads the environment
// record once, builds the fetcher, bucket prober, metrics, handlers and HTTP
// server, and hands explicit dependencies to each of them.
package application
