// Package scriptpanel puts the output of periodically executed scripts on
// a panel: the first line of stdout becomes a short label and stderr the
// long-form detail.
package scriptpanel

// Version is the release version, overridden at link time.
var Version = "v0.1.0-dev"
