// SPDX-License-Identifier: MIT

package command

// The fixed prompt whitelist. Every other string is rejected at the HTTP
// boundary before it reaches the manager.
const (
	PromptPickUpBall = "pick up the ball"
	PromptGetTreat   = "get the treat"
	PromptGoHome     = "go home"
)

// KnownPrompt reports whether prompt is in the whitelist.
func KnownPrompt(prompt string) bool {
	switch prompt {
	case PromptPickUpBall, PromptGetTreat, PromptGoHome:
		return true
	}
	return false
}
