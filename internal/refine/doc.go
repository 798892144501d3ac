// Package refine rewrites transcript text in one batch through an external
// refiner, typically an LLM that fixes recognition errors and punctuation.
//
// Refinement is best effort. Apply sends the ordered segment texts once and
// accepts the result only when it has exactly one string per input; any
// error, count mismatch, or malformed element keeps every original text.
// Results are never applied partially, so segment timing stays aligned.
package refine
