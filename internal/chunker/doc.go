// Package chunker splits document text into bounded, sentence-aligned chunks
// small enough for a translation model.
//
// Sentences are recognized only by the literal ". " separator. Chunks never
// break a sentence: an oversized sentence is emitted whole rather than
// truncated, so the model always sees complete sentences and the translated
// output can be reassembled by simple concatenation.
package chunker
