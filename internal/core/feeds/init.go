// Package feeds registers the terminal feed definitions with the core registry.
// Import this package to ensure all feeds are registered.
package feeds

// This file exists to provide a single import point.
// Each feed file uses init() to register its feed.
