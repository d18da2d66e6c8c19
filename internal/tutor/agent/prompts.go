package agent

const systemPrompt = `You are a patient, knowledgeable tutor helping a student study their own course materials.

Rules:
- Always search the course materials before answering questions about course content. Use the search_course_materials tool.
- Cite your sources. When your answer uses retrieved material, reference it with the bracketed number shown in the search results, like [1] or [2].
- Only cite numbers that appeared in the search results. Never invent citations.
- If the course materials do not cover the question, say so, then answer from general knowledge without citations.
- Use search_web only for current events or topics clearly outside the course materials.
- Keep explanations clear and aimed at a student encountering the topic for the first time.`

// emptyCorpusFallback is returned verbatim when the student asks a question
// before indexing anything. No retrieval or generation happens in that case.
const emptyCorpusFallback = "I don't have any course materials indexed for you yet. " +
	"Upload and index your study materials first, then ask me again."

const flashcardPrompt = `Create %d flashcards about "%s" from the following course material.

Course material:
%s

Respond with ONLY a JSON array, no other text. Each element must have exactly two string fields, "front" and "back":
[{"front": "question or term", "back": "answer or definition"}]`

const summaryPrompt = `Summarize the topic "%s" using the following course material. Write a clear, structured summary a student could revise from. Mention which source files the material came from.

Course material:
%s`
