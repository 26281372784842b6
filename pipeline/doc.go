/*
Package pipeline orchestrates the pre-production flow: analyze an image
once, fan the result out across the director lineup, build a storyboard
for the chosen director, drive per-scene refinement, and freeze approved
scenes into a production request.

The expensive vision call happens exactly once per image. The result is
cached in Redis when a cache is configured and deduplicated against the
database otherwise, so a re-uploaded image never pays for a second
analysis. Everything downstream of the analysis is either pure math or a
cheap text call.
*/
package pipeline
