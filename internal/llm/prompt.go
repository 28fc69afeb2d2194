package llm

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

// systemPrompt instructs the model to extract structured actions from a
// Russian diary entry. The category list is injected from the taxonomy so
// the prompt and the validator cannot drift apart.
func systemPrompt() string {
	categories := strings.Join(domain.Categories(), ", ")
	return fmt.Sprintf(`You are an assistant that extracts structured activities and achievements from a user's daily diary entry in Russian.

Your task:
1. Identify all activities and achievements mentioned in the text
2. For each action, determine:
   - category (one of: %s)
   - subcategory (optional, e.g. бодибилдинг, математика, программирование)
   - action (short description of what was done)
   - type: "activity" (regular action) or "achievement" (significant accomplishment)
   - estimated_time_minutes (conservative estimate)
   - confidence (0.0 to 1.0, how certain you are)
   - achievement_weight (only for achievements, %d-%d based on significance)

Guidelines:
- Be conservative with time estimates
- Mark as achievement only if it's a significant accomplishment (first time, record, completion)
- Use confidence below 0.5 for ambiguous items
- Always output valid JSON following the schema
- Do not add extra commentary

Output format (JSON only):
{
  "actions": [
    {
      "category": "string",
      "subcategory": "string or null",
      "action": "string",
      "type": "activity or achievement",
      "estimated_time_minutes": number,
      "confidence": number,
      "achievement_weight": number or null
    }
  ]
}`, categories, domain.MinAchievementWeight, domain.MaxAchievementWeight)
}

// promptExample is one few-shot input/output pair. Outputs are stored as
// literal JSON so the model sees exactly the shape it must produce.
type promptExample struct {
	input  string
	output string
}

var promptExamples = []promptExample{
	{
		input: "Сходил в зал, пожал сотку, приготовил курочку",
		output: `{"actions":[` +
			`{"category":"спорт","subcategory":null,"action":"сходил в зал","type":"activity","estimated_time_minutes":90,"confidence":0.95,"achievement_weight":null},` +
			`{"category":"спорт","subcategory":"бодибилдинг","action":"пожал сотку","type":"achievement","estimated_time_minutes":5,"confidence":0.9,"achievement_weight":15},` +
			`{"category":"готовка","subcategory":null,"action":"приготовил курочку","type":"activity","estimated_time_minutes":40,"confidence":0.9,"achievement_weight":null}]}`,
	},
	{
		input: "Читал 2 часа по линейной алгебре, сделал домашку",
		output: `{"actions":[` +
			`{"category":"учёба","subcategory":"математика","action":"читал по линейной алгебре","type":"activity","estimated_time_minutes":120,"confidence":0.95,"achievement_weight":null},` +
			`{"category":"учёба","subcategory":null,"action":"сделал домашку","type":"activity","estimated_time_minutes":60,"confidence":0.85,"achievement_weight":null}]}`,
	},
	{
		input: "Впервые пробежал 10 км без остановок!",
		output: `{"actions":[` +
			`{"category":"спорт","subcategory":"кардио","action":"пробежал 10 км без остановок","type":"achievement","estimated_time_minutes":60,"confidence":0.95,"achievement_weight":20}]}`,
	},
}

// userPrompt assembles the few-shot examples and the diary entry.
func userPrompt(text string) string {
	var b strings.Builder
	for i, ex := range promptExamples {
		fmt.Fprintf(&b, "Example %d:\nInput: %s\nOutput: %s\n\n", i+1, ex.input, ex.output)
	}
	fmt.Fprintf(&b, "Now analyze this diary entry:\nInput: %s\nOutput:", text)
	return b.String()
}
