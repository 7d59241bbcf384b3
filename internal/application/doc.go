// Package application provides application initialization and dependency wiring.
// It chooses the profile source, configures the process-wide profile loader,
// opens visit storage and assembles the page, API and asset routes behind the
// shared middleware chain, leaving the main package to CLI parsing and
// orchestration.
package application
