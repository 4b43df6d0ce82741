/*
Package domain contains the core domain models of the point-of-view rewriter.

It defines the character-sheet Document, the FieldSelector that decides which fields take
part in a rewrite, the PartialDocument produced by a successful rewrite, and the error
taxonomy shared by every layer. This package performs no I/O.

# Key Entities

  - Document: the character sheet being rewritten (name, description, greetings, ...).
  - Field: one of the five rewritable fields, in canonical declaration order.
  - FieldSelector: the set of fields a caller opted into.
  - PartialDocument: the subset of fields produced by a rewrite, ready to merge.
  - Preview: a per-field old/new comparison offered before a PartialDocument is committed.
*/
package domain
