// Package cmd implements the command-line interface of rKV. It provides a
// hierarchical command structure to inspect and modify a store on any of the
// supported media.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for namespaced values (get, set, del, list, clear)
//   - entities: Commands for entity collections (add, edit, rm, get, list, clear)
//   - watch: Follows values and prints every change, including external ones
//   - stats: Prints statistics and metrics of a namespace
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rkv -help for a list of all commands.
package cmd
