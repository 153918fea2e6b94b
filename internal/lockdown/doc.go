// Package lockdown is the core of lockbot: it decides when posts become
// due for locking, which due posts are exempt, and when the next
// processing pass must run.
//
// Three pieces cooperate:
//
//   - The filter pipeline, a short-circuiting chain of exemption checks
//     evaluated against live post state at processing time.
//   - The due-post processor, which drains a bounded batch of due posts,
//     runs the pipeline, locks survivors, and removes every fetched
//     entry from the queue (an exemption is terminal, not a retry).
//   - The adaptive reconciler, which schedules a one-shot "adhoc" pass
//     only when the next lock deadline lands usefully ahead of the
//     daily periodic pass.
//
// Every entry point takes a frozen Settings snapshot for the whole
// invocation; nothing reads mutable configuration mid-pass.
package lockdown
