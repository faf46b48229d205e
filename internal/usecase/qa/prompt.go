package qa

// answerPrompt embeds the assembled context and the question.
func answerPrompt(contextText, question string) string {
	return "Based on this context:\n\n" + contextText +
		"\n\nQuestion: " + question +
		"\n\nPlease provide a concise and accurate answer based on the information above. " +
		"If the context doesn't contain enough information to answer the question, please say so."
}
