/*
Package ports defines the driven ports (interfaces) of the rewrite pipeline.

These interfaces decouple the core from its external collaborators: the model that
produces completions, the store that owns documents, and the lock that keeps a single
rewrite in flight per document.

# Key Interfaces

  - Completer: issues one completion for a prompt (the sole suspension point).
  - DocumentStore: loads and persists character documents.
  - Locker: serializes rewrites of the same document across hosts.
  - Confirmer: decides whether a previewed rewrite is committed.
*/
package ports
