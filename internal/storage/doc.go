// Package storage provides the persistence layer behind the pending-post
// queue and the scheduler's bookkeeping values.
//
// The contract is deliberately small: a string key-value table plus a
// sorted set (member + integer score per key). The queue only ever needs
// score-ordered range reads, a lowest-score peek, and idempotent
// insert/remove, so anything resembling Redis sorted-set semantics fits.
//
// Two drivers exist: "sqlite" for production and "memory" for tests.
package storage
