/*
Package types defines core data structures shared across reqly.

# Overview

The types package provides shared type definitions for:
  - HTTP requests and responses
  - Connection handles and registry snapshots
  - Request history

# Request Types

Request:
  - One-shot HTTP request definition
  - Raw ordered header lines ("Name: Value"), duplicates allowed
  - Optional body, attached unconditionally when present
  - Method is an unrestricted token; unknown verbs are sent verbatim

Response:
  - Status code, ordered header lines, UTF-8 body

# Connections

Handle:
  - Opaque identifier for a registered connection
  - Allocated from a monotonic counter, stable across removals

ConnectionInfo:
  - Point-in-time snapshot of a registered connection
  - Returned by the manager's ListConnections

# Field Tags

All serializable types carry JSON tags (and YAML tags where files use them).
The `omitempty` tag is used to keep serialized data clean.
*/
package types
