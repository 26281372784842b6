/*
Package director holds the persona registry and the bias engine.

A director profile is a static, immutable reinterpretation lens over the
raw Trinity scores: three positive multipliers, a risk tier, a voice
descriptor used as generation guidance, and an optional preferred
production engine. Profiles are defined at process start and injected as a
read-only Registry; lookups for unknown ids fall back to a designated
default profile rather than failing.

ApplyBias and Route are pure functions. Given the same RawAnalysis and
Profile they return byte-for-byte identical results, which is why biased
scores are recomputed on demand and never persisted.
*/
package director
