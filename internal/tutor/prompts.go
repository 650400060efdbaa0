package tutor

import (
	"fmt"
	"math"
	"strings"
	"text/template"
)

// historyWindow is how many recent messages are quoted back to the LLM.
const historyWindow = 6

// SystemPrompt sets up the Socratic tutor persona and scoring rubric.
const SystemPrompt = `You are a Socratic tutor helping a learner understand an educational YouTube video by asking questions rather than giving answers.

<guidelines>
- Ask one focused question at a time.
- Use plain, conversational language matched to the learner.
- Point at video moments with MM:SS timestamps.
- Connect new ideas to what the learner already knows.
- Praise sound reasoning, not only correct conclusions.
- When the learner struggles, break the question into smaller steps instead of explaining the answer.
- Probe their mental model with "Why do you think that?" style questions.
</guidelines>

` + scoringRubric + `

<format>
Reply in plain prose. No JSON, no code blocks. Bold timestamps like **3:45**. Avoid lists unless offering the learner discrete choices.
</format>

<gating>
Chapters unlock only after the learner shows understanding. When they pass, congratulate them and say the next chapter is unlocked.
</gating>`

// scoringRubric is shared by the persona and the grader. It says nothing
// about reply format, which the grading request sets itself.
const scoringRubric = `<rubric>
Score understanding from 0 to 100:
1. Conceptual accuracy, 40%: is the core idea right?
2. Depth, 30%: can they explain why, not only what?
3. Articulation, 20%: can they say it clearly in their own words?
4. Connections, 10%: do they relate it to other ideas?

85-100: exceptional, stretch them with synthesis questions.
70-84: solid, move on to the next chapter.
50-69: partial, ask a targeted follow-up about the gap.
0-49: significant gaps, send them back to a specific part of the video.

The passing threshold is 70/100.
</rubric>`

// conversationalSystemPrompt is used for free-text replies.
const conversationalSystemPrompt = `You are a friendly Socratic tutor. Reply only with the question or message for the learner as natural conversational text. No JSON, no formatting markers. Be warm and encouraging.`

// evaluationSystemPrompt is used when grading an answer.
const evaluationSystemPrompt = `You are a Socratic tutor grading a learner's understanding. Give a clear score and specific feedback about what they got right and wrong. Stay encouraging.

` + scoringRubric

// greetingSystemPrompt is used for the opening message of a session.
const greetingSystemPrompt = `You are a warm Socratic tutor opening a learning session. Your reply is shown to the learner as-is, so write smooth, friendly prose and find out what they already know.`

// FormatTime renders seconds as M:SS.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// QuestionDifficulty picks the question style for a learner profile.
func QuestionDifficulty(p UserProfile) Difficulty {
	switch {
	case p.ResponseQuality == QualityExcellent && p.OverallComprehension >= 85:
		return DifficultySynthesis
	case p.ResponseQuality == QualityAdequate || p.OverallComprehension >= 70:
		return DifficultyApplication
	default:
		return DifficultyRecall
	}
}

// InitialPrompt asks for an opening greeting and prior-knowledge question.
func InitialPrompt(videoTitle, topic string) string {
	var b strings.Builder
	b.WriteString("<task>Greet a learner who is starting this video session.</task>\n\n")
	fmt.Fprintf(&b, "Video title: %q\nTopic: %s\n\n", videoTitle, topic)
	b.WriteString("Write two or three sentences that:\n")
	b.WriteString("1. Welcome them with genuine enthusiasm for the topic.\n")
	fmt.Fprintf(&b, "2. Ask what they already know about %s.\n", topic)
	b.WriteString("3. Sound like a curious friend, not a textbook.\n\n")
	b.WriteString("Reply with the greeting only, as plain text.")
	return b.String()
}

// PreWatchPrompt asks for a priming question before a chapter is watched.
func PreWatchPrompt(ch Chapter, priorKnowledge string) string {
	var b strings.Builder
	b.WriteString("<task>Write one priming question to ask before the learner watches the next chapter.</task>\n\n")
	writeChapter(&b, ch)
	fmt.Fprintf(&b, "What the learner said about their background: %q\n\n", priorKnowledge)
	b.WriteString("The question should activate what they already know, make them curious, ")
	b.WriteString("and prime them to notice the key points above. Refer to concrete ideas from the chapter.")
	if first := firstKeyPoint(ch); first != "" {
		fmt.Fprintf(&b, " For example: \"Based on what you know, why might %s matter here?\"", strings.ToLower(first))
	}
	b.WriteString("\n\nReply with one or two sentences of plain text.")
	return b.String()
}

var postWatchTemplate = template.Must(template.New("post-watch").Parse(`<task>Evaluate the learner's understanding of this chapter.</task>

<chapter>
Chapter: "{{.Chapter.Title}}"
Summary: {{.Chapter.Summary}}
Key points: {{.KeyPoints}}
</chapter>

<history>
{{range .History}}{{.Role}}: {{.Content}}
{{end}}</history>

<answer>
"{{.Answer}}"
</answer>

Grade the answer with the rubric from your instructions: accuracy 40%, depth 30%, articulation 20%, connections 10%. Passing is 70/100.
Ask yourself: did they name the core idea, can they explain the reasoning, do they hold any misconception, is the explanation coherent, do they connect it to anything else?

Respond according to the score:
- 70-100: praise what they showed, mention the score, and say the next chapter is unlocked.
- 50-69: ask a targeted follow-up question about the gap without giving the answer away.
- 0-49: send them back to the chapter's timestamps and say which points to focus on.
Suggested question style for this learner: {{.Difficulty}}.`))

// PostWatchPrompt asks the LLM to grade an answer about ch. Only the last
// six history messages are included.
func PostWatchPrompt(ch Chapter, answer string, history []Message, difficulty Difficulty) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return render(postWatchTemplate, map[string]any{
		"Chapter":    ch,
		"KeyPoints":  strings.Join(ch.KeyPoints, ", "),
		"History":    history,
		"Answer":     answer,
		"Difficulty": difficulty,
	})
}

// EvaluationInstructions is appended to PostWatchPrompt when the answer
// is graded as prose rather than structured JSON.
const EvaluationInstructions = `

Evaluate the answer and give:
1. A score from 0-100
2. What they got right (strengths)
3. What they missed (weaknesses)
4. Any misconceptions
5. Encouraging feedback

Format: Start with "Score: X/100" then explain your evaluation naturally. Be encouraging!`

// StructuredEvaluationInstructions is appended when a JSON schema is used.
const StructuredEvaluationInstructions = `

Return the evaluation as JSON: an integer score from 0-100, short strengths, weaknesses and misconceptions lists, and one or two sentences of encouraging feedback addressed to the learner.`

// ComprehensionPrompt asks for a fresh question after a chapter was watched.
func ComprehensionPrompt(ch Chapter, difficulty Difficulty) string {
	var b strings.Builder
	b.WriteString("<task>The learner just finished watching this chapter. Ask one question that checks their understanding.</task>\n\n")
	writeChapter(&b, ch)
	fmt.Fprintf(&b, "Question style: %s. ", difficulty)
	switch difficulty {
	case DifficultySynthesis:
		b.WriteString("Ask how the ideas connect or what they imply.")
	case DifficultyApplication:
		b.WriteString("Ask them to apply an idea to a concrete situation.")
	default:
		b.WriteString("Ask them to explain a key idea in their own words.")
	}
	b.WriteString("\n\nReply with the question only, as plain text.")
	return b.String()
}

// FollowUpPrompt asks for a Socratic question that targets the gaps found
// in a partially correct answer.
func FollowUpPrompt(ch Chapter, answer string, weaknesses, misconceptions []string) string {
	var b strings.Builder
	b.WriteString("<task>Write a Socratic follow-up question that helps the learner find the gap in their own answer.</task>\n\n")
	fmt.Fprintf(&b, "Chapter: %q\nSummary: %s\n\n", ch.Title, ch.Summary)
	b.WriteString("The answer showed partial understanding (score 50-69).\n\n")
	fmt.Fprintf(&b, "Answer: %q\n\n", answer)
	fmt.Fprintf(&b, "Areas to develop: %s\n", orNone(weaknesses, "not identified"))
	fmt.Fprintf(&b, "Misconceptions: %s\n\n", orNone(misconceptions, "none specific, but understanding is incomplete"))
	b.WriteString("Guide them toward the gap without saying they are wrong. Make them examine their reasoning, ")
	b.WriteString("refer to concrete moments from the video, and never give away the answer.\n\n")
	b.WriteString("Reply with a single question as plain text.")
	return b.String()
}

var hintLevelGuidance = map[int]string{
	1: "A subtle nudge. Mention a general idea from the chapter or ask what they remember about a related idea. Reveal no specifics.",
	2: "Point to the part of the video to rewatch using **MM:SS to MM:SS** and name the concept to watch for.",
	3: "Hint at the key principle or relationship without stating it fully.",
	4: "Rephrase as a simpler question, a more concrete example, or a prerequisite that builds toward the answer.",
}

var hintTemplate = template.Must(template.New("hint").Parse(`<task>Give a level {{.Level}} hint that helps without giving away the answer.</task>

<chapter>
Chapter: {{.Chapter.Title}}
Key points: {{.KeyPoints}}
Time range: {{.Start}} to {{.End}}
</chapter>

<learner>
Question: "{{.Question}}"
Attempt so far: "{{.Answer}}"
</learner>

Level {{.Level}} of 4: {{.Guidance}}

Never state the answer. Use concrete details from the key points. Keep it to {{.Length}}.`))

// HintPrompt asks for a hint at the given level (1-4).
func HintPrompt(question, answer string, level int, ch Chapter) string {
	length := "one or two sentences"
	if level >= 3 {
		length = "at most three sentences"
	}
	return render(hintTemplate, map[string]any{
		"Level":     level,
		"Chapter":   ch,
		"KeyPoints": strings.Join(ch.KeyPoints, ", "),
		"Start":     FormatTime(ch.StartTime),
		"End":       FormatTime(ch.EndTime),
		"Question":  question,
		"Answer":    answer,
		"Guidance":  hintLevelGuidance[level],
		"Length":    length,
	})
}

// CheckpointMessage congratulates the learner on passing ch. next is nil
// when ch was the final chapter.
func CheckpointMessage(ch Chapter, score int, next *Chapter) string {
	celebration := "Well done"
	switch {
	case score >= 90:
		celebration = "Outstanding work"
	case score >= 80:
		celebration = "Excellent job"
	}

	if next != nil {
		return fmt.Sprintf("%s! You showed solid understanding of %q with a score of %d/100.\n\n"+
			"🔓 **%s** is now unlocked.\n\nReady for the next chapter?",
			celebration, ch.Title, score, next.Title)
	}
	return fmt.Sprintf("%s! You finished every chapter with a final score of %d/100.\n\n"+
		"🎉 **Course complete!** You worked through the whole video and showed real understanding of it.",
		celebration, score)
}

// ReviewMessage sends the learner back to the chapter after a low score.
func ReviewMessage(ch Chapter, eval EvaluationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Let's review this part together.\n\n%s\n\n", eval.Feedback)
	fmt.Fprintf(&b, "Try rewatching **%s to %s**", FormatTime(ch.StartTime), FormatTime(ch.EndTime))
	focus := eval.Weaknesses
	if len(focus) == 0 {
		focus = eval.Misconceptions
	}
	if len(focus) > 0 {
		b.WriteString(" and focus on:\n")
		for _, w := range focus {
			fmt.Fprintf(&b, "• %s\n", w)
		}
		b.WriteString("\n")
	} else {
		b.WriteString(".\n\n")
	}
	b.WriteString("Tell me when you're ready to try again!")
	return b.String()
}

// FrustrationMessage replaces ReviewMessage after repeated failures.
func FrustrationMessage(ch Chapter, failures int) string {
	return fmt.Sprintf("This chapter is a tricky one, and %d attempts in a row tells me we should change approach. "+
		"You can:\n"+
		"• type **hint** for a nudge in the right direction\n"+
		"• type **rewatch** and replay **%s to %s**\n"+
		"• type **simpler** and I'll ask an easier question\n\n"+
		"Which would help most?",
		failures, FormatTime(ch.StartTime), FormatTime(ch.EndTime))
}

// WatchInstruction tells the learner which part of the video to watch.
func WatchInstruction(ch Chapter) string {
	focus := firstKeyPoint(ch)
	if focus == "" {
		focus = "the main concepts"
	}
	return fmt.Sprintf("Now let's watch the next section: %q\n\n"+
		"⏯️ Watch from **%s** to **%s**.\n\n"+
		"Pay close attention to: %s\n\n"+
		"Let me know when you're done watching!",
		ch.Title, FormatTime(ch.StartTime), FormatTime(ch.EndTime), focus)
}

// AssistMessage answers a help keyword typed during review.
func AssistMessage(keyword string, ch Chapter) string {
	switch keyword {
	case "hint":
		focus := firstKeyPoint(ch)
		if focus == "" {
			focus = ch.Summary
		}
		return fmt.Sprintf("Here's a nudge: think about %s and how it shows up in %q. What does that suggest?",
			strings.ToLower(focus), ch.Title)
	case "simpler", "easier":
		return fmt.Sprintf("Let's make it smaller. In one sentence, what is %q mostly about?", ch.Title)
	case "rewatch":
		return fmt.Sprintf("Good idea. Replay **%s to %s**, then tell me the one idea that stood out most.",
			FormatTime(ch.StartTime), FormatTime(ch.EndTime))
	case "skip":
		return "We can't skip ahead until this chapter clicks, but we can take it slowly. " +
			"Tell me what you remember from it, even a single detail, and we'll build from there."
	}
	return "Tell me what you remember from this chapter and we'll work from there."
}

// CompletionReminder is sent when the learner writes after finishing.
func CompletionReminder(state *ConversationState) string {
	return fmt.Sprintf("You've already completed %q with an overall comprehension of %d/100. "+
		"Start a new session to study another video.",
		state.VideoTitle, state.UserProfile.OverallComprehension)
}

// DefaultGreeting is used when the greeting cannot be generated.
func DefaultGreeting(topic string) string {
	return fmt.Sprintf("Hi! I'm excited to help you learn. What do you already know about %s?", topic)
}

func writeChapter(b *strings.Builder, ch Chapter) {
	fmt.Fprintf(b, "Chapter: %q\nSummary: %s\nKey points: %s\n", ch.Title, ch.Summary, strings.Join(ch.KeyPoints, ", "))
	fmt.Fprintf(b, "Time range: %s to %s\n\n", FormatTime(ch.StartTime), FormatTime(ch.EndTime))
}

func firstKeyPoint(ch Chapter) string {
	if len(ch.KeyPoints) == 0 {
		return ""
	}
	return strings.TrimSpace(ch.KeyPoints[0])
}

func orNone(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("render %s prompt: %v", t.Name(), err))
	}
	return b.String()
}
