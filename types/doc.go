/*
Package types provides the shared domain types for the greenlight pipeline.

types is the lowest-level public package and depends on nothing inside the
module. All cross-package contracts live here: the Trinity score triplet
produced by the vision analysis, the derived biased scores and routing
decision, the storyboard and scene records consumed by the refinement state
machine, the style preset catalogue entries, and the structured error type
used across every boundary.

Token hygiene also lives here: every textual token that is persisted or
handed to a downstream renderer (invariant, action, style, full prompt)
passes through SanitizeToken, which is idempotent.
*/
package types
