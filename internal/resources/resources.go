// Package resources holds the static help content shown on the Resources
// page and attached to escalated screening outcomes.
package resources

// Helpline is one emergency contact line.
type Helpline struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Crisis is the payload returned whenever a screening result escalates.
type Crisis struct {
	Message   string     `json:"message"`
	Helplines []Helpline `json:"helplines"`
	Advice    string     `json:"advice"`
}

const (
	supportMessage         = "Please reach out for immediate help. You are not alone."
	dangerAdvice           = "If you are in immediate danger, please call your local emergency services."
	ProfessionalHelpNotice = "Your score indicates you may benefit from talking to a mental health professional."
)

var helplines = []Helpline{
	{Name: "National Suicide Prevention Lifeline (India)", Number: "9152987821"},
	{Name: "KIRAN Mental Health Helpline", Number: "1800-599-0019"},
}

var articles = []Article{
	{Title: "Understanding Anxiety", URL: "https://www.nimh.nih.gov/health/topics/anxiety-disorders"},
	{Title: "Coping with Depression", URL: "https://www.helpguide.org/articles/depression/coping-with-depression.htm"},
	{Title: "Mindfulness for Beginners", URL: "https://www.mindful.org/meditation/mindfulness-getting-started/"},
	{Title: "iCALL Psychosocial Helpline", URL: "https://icallhelpline.org/"},
}

// EmergencyHelpline returns the crisis contacts. The result is a fresh copy.
func EmergencyHelpline() Crisis {
	return Crisis{
		Message:   supportMessage,
		Helplines: append([]Helpline(nil), helplines...),
		Advice:    dangerAdvice,
	}
}

func Articles() []Article {
	return append([]Article(nil), articles...)
}
