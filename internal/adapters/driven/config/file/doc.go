// Package file persists pipeline settings as a TOML document under the
// refpipe config directory (~/.refpipe/config.toml by default).
package file
