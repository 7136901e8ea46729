package review

import "fmt"

// reviewSystemPrompt frames the model as a reviewer of one file's changes.
const reviewSystemPrompt = `You are a senior software engineer reviewing a code change.
Review the diff for correctness, security, performance, and readability issues.
Be specific: reference the changed lines you are commenting on. If the change
looks good, say so briefly. Respond in plain text with short paragraphs or
bullet points, no code fences around the whole answer.`

// BuildCommitPrompt wraps a diff for commit-message generation. The system
// prompt carries the language and format instructions.
func BuildCommitPrompt(diff string) string {
	return fmt.Sprintf("Write a commit message for the following changes.\n\n```diff\n%s\n```", diff)
}

// BuildReviewPrompt wraps one file's diff for review.
func BuildReviewPrompt(file, diff string) string {
	return fmt.Sprintf("Review the changes to %s.\n\n```diff\n%s\n```", file, diff)
}
