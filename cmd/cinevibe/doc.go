// Package main hosts the Cinevibe CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's API, direct result-store maintenance, and
// configuration scaffolding. Configuration resolution happens once per
// invocation so subcommands can focus on presentation.
package main
