// Package keys derives and resolves VDXF keys: the 20-byte identifiers that
// name record types, fields and namespaces on the wire.
//
// API stability:
//
// Stable:
//   - Pure, deterministic derivation of key IDs from qualified key names
//     ("vrsc::system.identity.signature").
//
// Experimental:
//   - Directory, an in-memory name table used by the CLI and by decoders that
//     run with ordinal optimization. Applications with their own key catalogue
//     should implement Resolver instead.
package keys
