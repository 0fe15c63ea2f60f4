/*
Package ports defines the driven ports (interfaces) of the funnel engine.

These interfaces decouple the step engine from external implementations, allowing
it to work with various storage backends and widget front-ends.

# Key Interfaces

  - KeyValueStore: the durable keyed store behind snapshot slots (memory, file, redis, sqlite).
  - WidgetDispatcher: renders a surfaced Prompt (terminal, HTTP client, test harness).
*/
package ports
