// Package network holds the catalog of chains a session can connect to.
//
// The catalog is configuration: it is built once at startup, from the
// built-in defaults or from a YAML/TOML file, and never changes afterwards.
package network
