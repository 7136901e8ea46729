// Package redact strips secrets from diff text before it is sent to any AI
// provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS credentials, bearer tokens, and vendor tokens
// (Anthropic, OpenAI, GitHub, Slack). Matches are replaced with [REDACTED];
// diff structure (markers, headers, hunk lines) is left intact so the model
// still sees a parseable diff.
package redact
