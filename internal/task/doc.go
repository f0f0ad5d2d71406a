// Package task is the batched, cooperative runtime driving filter
// evaluation: the FilterBits producing operator, the bounded result
// queue with producer/consumer wake-up, and the consumer cursor.
// Each task is single-threaded and cooperative internally; many tasks
// run in parallel under the caller's admission control.
package task
