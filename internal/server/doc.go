// Package server wires the middleware chain into a small demo API: a public
// info route, a login route, and bearer-protected user and product
// collections backed by in-memory stores.
//
// Reads are rate limited and cached; writes require the "escribir"
// permission and invalidate the whole response cache.
package server
