package pipeline

// UpdateInstruction asks the model for a single copy-pasteable shell block that rewrites files with heredocs
const UpdateInstruction = "Could you please provide step-by-step instructions with specific file changes as shell commands, " +
	"but include all the changes in a single shell block that I can copy and paste into my terminal to apply them all at once? " +
	"Please ensure that the changes are grouped together and can be executed in one go. " +
	"Start script from cd command to ensure it runs in correct folder. " +
	"Don't worry about backup I am using git. " +
	"Do not use sed or patch - always use cat with EOF as most reliable way to update file. " +
	"Omit explanations"

// solutionPrompt is the Stage A input
func solutionPrompt(prompt, context string) string {
	return prompt + "\n\n" + context
}

// scriptPrompt is the Stage B input built from a solution
func scriptPrompt(solution, context string) string {
	return UpdateInstruction + "\n\n" + solution + "\n\n" + context
}

// directPrompt is the single-call input
func directPrompt(prompt, context string) string {
	return UpdateInstruction + ".\n\nHere is my request:\n" + prompt + "\n\nHere is the context:\n" + context
}
