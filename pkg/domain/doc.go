/*
Package domain contains the core domain models of the Vanity registry.

It defines how definitions are named and grouped, the errors every layer reports,
and the lifecycle events emitted while loading definitions and managing the store
connection. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Identifier: The normalized key of a definition within its Family.
  - Family: One of the two definition kinds (experiments, metrics).
  - Definition: The decoded content of a definition file.
  - LifecycleHooks: Observability callbacks for load passes, connections and tracking.
*/
package domain
