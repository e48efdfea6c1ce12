// Package workflow drives one document through the translation pipeline.
//
// The Manager is a small run-to-completion state machine:
//
//	Idle -> Populating -> Translating -> Assembling -> Done
//	                          |
//	                          +-> Failed
//
// Populating splits the source document into chunks and stores them as a new
// batch. Translating hands each pending chunk to the Invoker, which calls the
// configured translate.Translator and records the result together with the
// chunk's done flag in one transaction. Assembling joins the stored
// translations into the output file and clears the queue.
//
// A run that stops early (chunk failure, cancellation, crash) leaves the queue
// intact, so the next run resumes from the first pending chunk. The active
// batch records the source path and content hash; a run against a different
// document refuses to continue until the queue is reset. A lock file next to
// the database keeps two runs from sharing the queue.
package workflow
