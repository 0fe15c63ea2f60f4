/*
Package domain contains the core domain models of the funnel step engine.

It defines the entities shared by every product line: the journey State, the
Step contract authored in each product registry, the ephemeral Script a step
renders, the chat history, personas, and persisted snapshots. This package is
kept pure and free of I/O or persistence concerns.

# Key Entities

  - State: the mutable record of one journey (fields, current step, history, UI flags).
  - Step: a node of the conversation graph (condition, script, reducer, next-step resolver).
  - Script: the messages, options and input constraints a Step shows for a (persona, state).
  - ChatMessage: an append-only entry of the displayed conversation.
  - Snapshot: the last checkpointed projection of a State for one product.
*/
package domain
