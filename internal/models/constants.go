package models

// FallbackAnswer is returned verbatim whenever retrieval produces no usable
// context. The prompt below instructs the model to emit the same sentence.
const FallbackAnswer = "I could not find relevant information in the uploaded documents."

var (
	QAPromptTemplate = `You are MedAssist, an AI assistant for medical documents.

Context:
{{.context}}

Question:
{{.question}}

Rules:
- Answer using only the context above
- If the context does not contain the answer, reply exactly: "` + FallbackAnswer + `"
- Do not give medical advice
`
)
