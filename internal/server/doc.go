// Package server wires the SafeXchange HTTP surface: role-scoped login and
// client signup, ops-only file management against object storage, and the
// single-use download-token flow. Handlers stay thin; policy decisions live
// in the middleware and the injected stores.
package server
