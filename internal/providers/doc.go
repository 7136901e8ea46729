// Package providers abstracts AI chat-completion vendors behind a common
// Provider contract: generate a response from a system prompt and a user
// prompt, list the vendor's models, and rebuild the client when settings
// change.
//
// Transient failures (rate limits, 5xx) are retried with exponential
// backoff. Prompts are truncated to the model's input-token window before
// the first call; a context-length overflow then retries with a shrinking
// budget, 80% of the previous one per retry, up to two retries, before the
// error propagates wrapped.
package providers
