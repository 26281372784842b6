/*
Package openaicompat implements llm.Provider against any endpoint that
speaks the OpenAI chat completions dialect, including multimodal
image_url content parts for vision requests.

The provider performs no retries of its own; it classifies transport and
HTTP failures into *types.Error so the caller's retry and fallback layers
can decide. Outbound request rate is bounded with a token-bucket limiter.
*/
package openaicompat
