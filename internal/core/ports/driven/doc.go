// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Chunker: Splits one document into transient fragments
//   - FingerprintTracker: Reports changed and removed documents per scan
//   - EmbeddingService: Turns fragment text and queries into vectors
//   - FragmentStore: Fragment persistence and similarity ranking
//   - SchedulerStore: Task state and run history
//   - ConfigStore: Application configuration
//
// All of them are required. A runtime missing the embedding service or the
// store reports itself as not ready rather than degrading.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or chunker package
package driven
