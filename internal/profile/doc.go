// Package profile loads the portfolio profile document (Content/profile.json)
// exactly once per generation and serves the cached result to every page
// binder. Concurrent first callers share a single in-flight load; a failed
// load leaves the loader empty so the next caller fetches again, and Reset
// forces a fresh fetch on the next Instance call.
package profile
