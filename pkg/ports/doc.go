/*
Package ports defines the driven ports (interfaces) of the Vanity registry.

These interfaces decouple the registry from the storage backend, so experiments
and metrics read and write through whichever adapter the connection manager
resolved (Redis, SQLite, or the in-memory mock).

# Key Interfaces

  - Adapter: The storage backend capability owned by the connection manager.
  - Connector: Hands out the active Adapter, establishing it lazily.
*/
package ports
