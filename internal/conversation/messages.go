package conversation

// Fixed patient-facing texts.
const (
	msgCancelExisting   = "⚠️ You already have an appointment.\n\nAre you sure you want to cancel it? (yes/no)"
	msgAskCancelCode    = "Sure, please provide your confirmation code or booking id.\nExample:\n• APPT-1732829\n• ABC123"
	msgCancelled        = "❌ Your appointment has been cancelled.\n\nIf you'd like to book again, I can help."
	msgKeepExisting     = "👍 Okay, I will keep your appointment."
	msgBadCode          = "I couldn't detect a valid code.\nPlease provide something like:\n• APPT-123456\n• ABC123"
	msgCodeNotFound     = "❌ I couldn't find an active appointment with that code.\nPlease check your confirmation email."
	msgFoundBooking     = "📋 Found your appointment:\n\n📅 %s at %s\n👨‍⚕️ %s\n\nAre you sure you want to cancel? (yes/no)"
	msgCodeCancelled    = "❌ Appointment cancelled successfully.\nIf you'd like to rebook, just let me know!"
	msgKeepByCode       = "👍 Ok, I will keep your appointment."
	msgAlreadyCancelled = "ℹ️ That appointment was already cancelled, so there is nothing more to do.\nIf you'd like to rebook, just let me know!"
	msgBookingGone      = "❌ I couldn't find that appointment anymore, so there is nothing to cancel.\nIf you'd like to book again, I can help."
	msgCancelFailed     = "❌ I couldn't cancel your appointment right now.\nPlease try again in a moment."

	msgRestart     = "Got it, let's start fresh. What brings you in today?"
	msgGreeting    = "Hello 👋! I'm here to help you schedule an appointment.\n\nWhat brings you in today?"
	msgSymptom     = "Thanks for sharing 🙏\n\nBased on your symptoms, I'd recommend a **General Consultation (30 min)**.\nDoes that work for you?"
	msgAskReason   = "Sure! What's the reason for your appointment?"
	msgIntro       = "I'm here to help you book an appointment 😊\n\nWhat brings you in today?"
	msgVagueReason = "I'd like to help! Could you tell me what brings you in?\n\nFor example:\n• 'I have a headache'\n• 'I need a checkup'\n• 'Follow-up appointment'"
	msgUrgent      = "That sounds urgent 😟\n\nI recommend a **General Consultation (30 min)**.\nDoes that work?"
	msgSuggestType = "Thanks for sharing 🙏\n\nI'd recommend a **General Consultation (30 min)**.\nIs that okay?"

	msgTypeChosen = "Great! I'll schedule a **%s** (%dm).\n\nWhen would you like to come in?\nTry:\n• tomorrow\n• next Monday\n• March 5\n• in 2 days"
	msgTypeMenu   = "Which type of appointment?\n\n• General Consultation (30 min)\n• Follow-Up (15 min)\n• Physical Exam (45 min)\n• Specialist Consultation (60 min)"
	msgBadDate    = "I didn't understand that date. Please try:\n• tomorrow\n• next Monday\n• December 15\n• in 3 days"
	msgPastDate   = "That date has already passed. When would you like to come in?"
	msgAskTime    = "Got it! Morning ☀️ Afternoon 🌤️ or Evening 🌙 ?"
	msgBadTime    = "Please choose a time of day:\n• Morning ☀️\n• Afternoon 🌤️\n• Evening 🌙"
	msgNoDoctors  = "No doctors available for that time. Try a different time or date."
	msgDoctors    = "Here are available doctors 👇"
	msgBadDoctor  = "Please select a doctor by saying:\n• first\n• second\n• 1 or 2\n• Dr. Smith"
	msgNoSlots    = "No slots available with this doctor. Try another date."
	msgSlots      = "📅 Available times with **%s**:"
	msgBadSlot    = "Please select a time slot:\n• 10:30\n• first or earliest\n• 1, 2, 3..."
	msgAskName    = "Perfect 👍 What's your full name?"
	msgBadName    = "Please provide your full name (first and last name).\nExample: John Smith"
	msgAskPhone   = "Great! What's your phone number?"
	msgBadPhone   = "That doesn't look like a valid phone number.\nPlease provide a 10-digit phone number.\nExample: 555-123-4567"
	msgAskEmail   = "And your email address?"
	msgBadEmail   = "That email looks invalid. Please try again.\nExample: john@example.com"
	msgSummary    = "📋 **Booking Summary:**\n\n🩺 %s (%d min)\n👨‍⚕️ %s - %s\n📅 %s\n⏰ %s\n👤 %s\n📞 %s\n📧 %s\n💭 Reason: %s\n\n✅ Confirm? (yes/no)"
	msgConfirmed  = "🎉 **Appointment confirmed!**\n\n📅 %s at %s\n👨‍⚕️ %s\n🔖 Confirmation: **%s**\n\nSee you then! 👋"
	msgBookFailed = "❌ Booking failed: %s\nPlease try again."
	msgChange     = "No problem! What would you like to change?\n(date, time, doctor, or cancel)"
	msgNewDate    = "Sure, when would you like to come in instead?"
	msgSlotTaken  = "😕 Sorry, that time was just booked.\n📅 Remaining times with **%s**:"
	msgDayFull    = "😕 Sorry, that time was just booked and **%s** has no other openings on %s.\nWhich other date works for you?"
	msgLookupDown = "Sorry, I couldn't check availability right now. Please try again in a moment."

	msgFAQDown       = "Sorry, I couldn't look that up right now."
	msgNotUnderstood = "I didn't understand that."
	msgRephrase      = "Sorry, I didn't understand that 🙏\nCould you rephrase?"
)
