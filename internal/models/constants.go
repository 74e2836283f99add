package models

const (
	// FallbackAnswer is what the model is told to reply when the context has no answer.
	FallbackAnswer = "answer not available in the context"

	Disclaimer = "\n\nNOTE:\nThese Responses are generated by AI so they may not be accurate, please verify the answers from the original sources"

	ContextSeparator = "\n\n"

	DefaultChunkSize    = 10000 // runes
	DefaultChunkOverlap = 1000  // runes
	DefaultTopK         = 4
	DefaultTemperature  = 0.7
)

var (
	// AnswerPromptTemplate is rendered with the "context" and "question" variables.
	AnswerPromptTemplate = `
Answer the question in detail using the provided context. If the answer cannot be found
in the context or can't be answered with the knowledge you already have, respond with
'` + FallbackAnswer + `'. Do not provide any misleading or made-up information
until and unless the question requires you to generate content based on the given context.

Context:
{{.context}}

Question:
{{.question}}

Answer:
`
)
