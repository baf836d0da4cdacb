// Package renderer coordinates the lifecycle of views: attaching them to a
// document, revalidating them, and detaching them, with lifecycle
// notifications delivered exactly once per transition and in a fixed order.
//
// DOM work is deferred onto the scheduler's render pass. Attaching is
// scheduled with ScheduleOnce, so repeated AppendTo calls before a flush
// attach once into the most recent target. Removal is scheduled with
// Schedule and collapses at execution time through the view's
// willRemoveElement flag.
//
// Two outcomes are failures: inserting a view that is already in the DOM
// and re-rendering a view that rendered in the current pass before it was
// inserted. Both return an *errors.PreconditionError. A canceled insertion,
// a removal whose flag was already consumed and revalidation of a view with
// no render result all return nil without side effects. Errors from the DOM
// helper and the render pipeline are returned unmodified.
package renderer
