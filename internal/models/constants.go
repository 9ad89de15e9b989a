package models

const (
	// DefaultTopK is the number of nearest reviews retrieved per question.
	DefaultTopK = 5

	// SnippetMaxRunes caps a single review snippet inside the context block.
	SnippetMaxRunes = 400

	// ContextMaxRunes caps the whole context block handed to the model.
	ContextMaxRunes = 1800

	SnippetEllipsis  = "…"
	TruncationMarker = "\n… (truncated)"

	// NoMatchSentinel is returned instead of review lines when retrieval
	// comes back empty. The prompt template tells the model to treat missing
	// evidence as insufficient context, so this string must never look like
	// a real review.
	NoMatchSentinel = "No matching reviews were found for this question."
)

var PromptTemplate = `You are an expert in answering questions about a pizza restaurant.

Use only the information from the provided reviews and do not invent facts.
If the reviews are not sufficient, say what is missing.

Here are some relevant reviews:
%s

Here is the question to answer:
%s
`
