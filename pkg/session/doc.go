/*
Package session holds journey state in memory.

A Store is the single mutable record of one journey: every write goes through
Merge (reducer patches) or Update (engine bookkeeping), and subscribers are told
which fields changed. A Manager keeps the live journeys of a process and
serializes work on each of them with reference-counted locks.
*/
package session
