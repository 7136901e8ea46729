// Quill is a CLI that writes commit messages and code reviews from your
// pending version-control changes using AI providers.
//
// It collects diffs from git or svn, optionally compresses and redacts them,
// and sends them to the configured provider (OpenAI, Anthropic, Gemini, or a
// local Ollama server).
//
// Usage:
//
//	quill commit                       # print a generated commit message
//	quill commit --save                # write it into the commit input
//	quill commit --commit a.go b.go    # commit files with the message
//	quill review a.go b.go             # review pending changes per file
//	quill review --format html -o r.html a.go
//	quill models list                  # show model catalogs
//	quill config set base.provider ollama
package main
