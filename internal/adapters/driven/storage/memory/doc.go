// Package memory provides in-memory implementations of the driven storage
// ports. They back the "memory" store driver and serve as test doubles.
package memory
