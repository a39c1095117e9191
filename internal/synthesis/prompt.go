package synthesis

import (
	"fmt"
	"time"

	"github.com/ketyia/aidiary/internal/diary"
)

const dateLayout = "2006-01-02"

// genderDescriptor maps the binary questionnaire flag to the localized
// descriptor used in the persona instruction. "0" is male; anything else is
// treated as female.
func genderDescriptor(gender string) string {
	if gender == "0" {
		return "男性"
	}
	return "女性"
}

// personaPrompt is the system instruction: impersonate the submitter and write
// a first-person diary entry of at most 300 characters.
func personaPrompt(questionnaire diary.Questionnaire) string {
	persona := fmt.Sprintf("%s代の%s", questionnaire.Age, genderDescriptor(questionnaire.Gender))
	return fmt.Sprintf("あなたは日記クリエータです。%sになりきり、日記を300字以内で作成してください", persona)
}

// dayPrompt is the user instruction embedding the current date and the three
// free-text answers.
func dayPrompt(today time.Time, questionnaire diary.Questionnaire) string {
	return fmt.Sprintf("%s、%sがありました。特に印象に残っていることは%s。今日一日は%sだった。",
		today.Format(dateLayout),
		questionnaire.TodaysEvent,
		questionnaire.MemorableThing,
		questionnaire.OneWord,
	)
}
