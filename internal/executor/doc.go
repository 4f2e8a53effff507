// Package executor is the execution layer of the engine. It validates a
// synthetic test's graph, schedules nodes wave by wave (a wave being every
// node whose dependencies have all completed), dispatches each wave
// concurrently, captures every outcome into a uniform result envelope, and
// aggregates the results into the final execution record, opening an
// incident when the test fails.
package executor
