package conversation

import (
	"regexp"
	"strings"

	"github.com/wolfman30/clinic-scheduling-agent/internal/session"
)

// Intent names the rule of the turn priority list that claimed a message.
type Intent string

const (
	IntentCancel     Intent = "cancel"
	IntentFAQ        Intent = "faq"
	IntentCancelFlow Intent = "cancel_flow"
	IntentRestart    Intent = "restart"
	IntentPipeline   Intent = "pipeline"
	IntentTriage     Intent = "triage"
	IntentFallback   Intent = "fallback"
)

type intentRule struct {
	intent  Intent
	matches func(state session.DialogState, lower string) bool
}

// intentPriority is evaluated top to bottom and the first match wins.
//
// Cancellation is matched on the bare substring "cancel" ahead of the FAQ rule, so an
// informational question such as "what is your cancellation policy?" starts the
// cancellation flow instead of being answered. This overlap is known and kept.
var intentPriority = []intentRule{
	{IntentCancel, func(_ session.DialogState, lower string) bool { return strings.Contains(lower, "cancel") }},
	{IntentFAQ, func(_ session.DialogState, lower string) bool { return isFAQ(lower) }},
	{IntentCancelFlow, func(state session.DialogState, _ string) bool { return isCancelFlowState(state) }},
	{IntentRestart, func(_ session.DialogState, lower string) bool { return isRestart(lower) }},
	{IntentPipeline, func(state session.DialogState, _ string) bool { return isPipelineState(state) }},
	{IntentTriage, func(state session.DialogState, _ string) bool { return state == session.StateNew }},
}

// Classify reports which rule handles message in the given dialog state.
func Classify(state session.DialogState, message string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, rule := range intentPriority {
		if rule.matches(state, lower) {
			return rule.intent
		}
	}
	return IntentFallback
}

var faqPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(insurance|location|hours|parking|payment|policy|covid)\b`),
	regexp.MustCompile(`\b(what|how|where|when)\b.*\b(cost|price|bring|documents)\b`),
}

func isFAQ(lower string) bool {
	for _, re := range faqPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func isRestart(lower string) bool {
	return strings.Contains(lower, "restart") || strings.Contains(lower, "start over")
}

func isCancelFlowState(state session.DialogState) bool {
	switch state {
	case session.StateAwaitingCancelConfirm, session.StateAwaitingCancellationCode, session.StateAwaitingCancelCodeConfirm:
		return true
	}
	return false
}

func isPipelineState(state session.DialogState) bool {
	_, ok := resumptionPrompts[state]
	return ok
}

// resumptionPrompts nudges the patient back into the pipeline after an FAQ answer.
var resumptionPrompts = map[session.DialogState]string{
	session.StateAwaitingReason:          "Now, what brings you in?",
	session.StateAwaitingAppointmentType: "What type of appointment would you like?",
	session.StateAwaitingDate:            "When would you like to come in?",
	session.StateAwaitingTime:            "What time of day works best?",
	session.StateAwaitingDoctor:          "Which doctor would you prefer?",
	session.StateAwaitingSlot:            "Which time slot works for you?",
	session.StateAwaitingName:            "What's your full name?",
	session.StateAwaitingPhone:           "What's your phone number?",
	session.StateAwaitingEmail:           "What's your email address?",
	session.StateAwaitingConfirm:         "Should I confirm this booking?",
}

const (
	defaultResumptionPrompt = "Let's continue with your booking."
	bookingOfferPrompt      = "Would you like to schedule an appointment?"
)

// resumptionPrompt returns what follows an FAQ answer in state.
func resumptionPrompt(state session.DialogState) string {
	switch state {
	case session.StateNew, session.StateCompleted:
		return bookingOfferPrompt
	}
	if p, ok := resumptionPrompts[state]; ok {
		return p
	}
	return defaultResumptionPrompt
}

var (
	greetings       = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}
	symptomWords    = []string{"pain", "hurt", "injury", "fever", "cough", "sick", "ache", "throat", "rash", "headache"}
	bookingWords    = []string{"appointment", "book", "schedule", "visit", "see doctor", "consultation"}
	urgentWords     = []string{"urgent", "severe", "emergency", "bad", "terrible", "can't", "unable"}
	fillerReplies   = []string{"hi", "hello", "hey", "yo", "sup"}
	affirmatives    = []string{"yes", "y", "yeah", "yep", "ok", "okay", "sure", "fine", "perfect"}
	affirmPhrases   = []string{"sounds good"}
	refusals        = []string{"no", "nope", "not", "don't", "dont", "keep", "never"}
	meaningfulWords = []*regexp.Regexp{
		regexp.MustCompile(`\b(pain|hurt|sick|fever|cough|checkup|consultation|followup|exam)\b`),
		regexp.MustCompile(`\b(need|want|schedule|book|appointment)\b`),
	}
)

// isPureGreeting is true only when the whole message is a greeting.
func isPureGreeting(lower string) bool {
	for _, g := range greetings {
		if lower == g || lower == g+"!" {
			return true
		}
	}
	return false
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// isValidReason rejects fillers and very short input. Three or more words always pass.
func isValidReason(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, f := range fillerReplies {
		if lower == f {
			return false
		}
	}
	if len(lower) < 3 {
		return false
	}
	if len(strings.Fields(lower)) >= 3 {
		return true
	}
	for _, re := range meaningfulWords {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// isAffirmative matches whole words, so "physical" does not count as "y".
func isAffirmative(lower string) bool {
	if containsAny(lower, affirmPhrases) {
		return true
	}
	for _, w := range words(lower) {
		for _, a := range affirmatives {
			if w == a {
				return true
			}
		}
	}
	return false
}

// isYes is the strict confirmation for destructive steps: a whole-word "yes" or "y" with
// no refusal in the same message.
func isYes(lower string) bool {
	return hasWord(lower, "yes", "y") && !hasWord(lower, refusals...)
}

func hasWord(lower string, want ...string) bool {
	for _, w := range words(lower) {
		for _, x := range want {
			if w == x {
				return true
			}
		}
	}
	return false
}
