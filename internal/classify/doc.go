// Package classify assigns one of a fixed set of categories to an email by
// prompting external completion backends.
//
// Classification is best-effort against non-deterministic services: the only
// correctness gate is exact membership in the category set. A Classifier runs
// a chain of backends (an optional secondary, then the primary with bounded
// retries) and degrades to a static default category when the chain is
// exhausted, so the processing pipeline always receives some category.
//
// Each backend reports token usage, which the classifier converts into a
// dollar estimate using that backend's per-token rates.
package classify
