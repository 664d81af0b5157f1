// Package definition holds the handles the registry hands out for loaded
// experiments and metrics. Handles keep no connection of their own; every read
// and write goes through the Connector they were built with.
package definition
