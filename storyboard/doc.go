/*
Package storyboard turns a RawAnalysis into a three-scene production plan
and drives the per-scene refinement state machine.

The Builder (the Voice) makes cheap text-only calls: a director pitch and
a storyboard generation. Generator output is parsed and validated at the
boundary, the style selection is checked against the preset catalogue,
every token is sanitized, and the scene list is padded or truncated to
exactly three entries. Generation never hard-fails: any transport or
validation problem degrades to the deterministic fallback storyboard, so
from the caller's perspective Build always succeeds.

The Refiner moves scenes through the PENDING/GREEN/YELLOW/RED traffic
light. Approve is a pure status write. Reject asks for a completely new
motion at high temperature; Tweak revises the current motion around user
feedback at low temperature. Both hold the invariant token fixed, replace
only the action token, and fall back deterministically when the
refinement call fails.
*/
package storyboard
