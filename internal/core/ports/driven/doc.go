// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - Connector: Produces the entity sequence for one source
//   - ConnectorFactory: Creates connectors from configuration
//   - TokenProvider: Supplies bearer material
//   - EntitySink: Consumes produced entities
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain and the extract engine
//   - Cannot Import: Any adapter or connector package
package driven
