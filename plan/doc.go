// Package plan defines the logical filter-expression tree handed to
// the execution engine, along with the typed constant values carried
// by its nodes. Trees are pure descriptions: stateless across queries
// and safe to share. The engine compiles them into physical
// evaluators.
package plan
