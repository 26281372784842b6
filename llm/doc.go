/*
Package llm defines the provider contract for external model calls.

The pipeline needs exactly two capabilities from a provider: a single-shot
chat completion over text messages (the Voice) and the same call shape
with an attached image part (the Eye). Both are expressed through the
Provider interface; concrete transports live in subpackages
(openaicompat for any OpenAI-compatible endpoint).

Errors crossing this boundary are always *types.Error with the transport
and retryability already classified, so callers can decide between
bounded retries and business-level fallback without inspecting HTTP
details.
*/
package llm
