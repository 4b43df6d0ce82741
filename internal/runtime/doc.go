// Package runtime drives a single rewrite from prompt to committed document.
//
// The completion call is the only suspension point. A cancel.Token aborted while it
// is in flight does not interrupt it; the result is discarded once it returns and the
// run reports an aborted outcome with no PartialDocument.
package runtime
