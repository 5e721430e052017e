// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the generative backend, registry
// persistence, prompt storage, and the clock.
package driven
