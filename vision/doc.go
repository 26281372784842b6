/*
Package vision implements the one-shot image analysis step (the Eye).

Analyze makes a single multimodal call and converts the untyped model
output into a typed RawAnalysis at an explicit parse-then-validate
boundary: missing or out-of-range scores are a VALIDATION_ERROR, never a
partial success. Unlike the storyboard side there is no deterministic
substitute for brand-specific visual facts, so both transport and
validation failures surface to the caller.

The call is expensive and the provider gives no determinism guarantee;
callers are responsible for caching results per image.
*/
package vision
