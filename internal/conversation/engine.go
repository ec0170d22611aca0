// Package conversation turns chat messages into booking pipeline transitions.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
	"github.com/wolfman30/clinic-scheduling-agent/internal/session"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// maxOfferedSlots caps how many slots one response lists.
const maxOfferedSlots = 8

// SlotFinder resolves availability for a date and appointment type. doctorID 0 means any doctor.
type SlotFinder interface {
	Check(ctx context.Context, date, appointmentType string, doctorID int) ([]availability.TimeSlot, error)
}

// Ledger is the booking surface the engine drives.
type Ledger interface {
	Book(ctx context.Context, req bookings.Request) (*bookings.Booking, error)
	Cancel(ctx context.Context, ref string) (*bookings.CancelResult, error)
	GetByConfirmation(ctx context.Context, code string) (*bookings.Booking, error)
}

// FAQ answers informational questions.
type FAQ interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Recorder receives per-turn observations.
type Recorder interface {
	ObserveTurn(state, action string, d time.Duration)
	ObserveIntent(intent string)
}

// EngineConfig wires an Engine. Sessions, Slots, Ledger and FAQ are required.
type EngineConfig struct {
	Sessions  *session.Store
	Slots     SlotFinder
	Ledger    Ledger
	FAQ       FAQ
	LLM       LLMClient
	Model     string
	MaxTokens int32
	Recorder  Recorder
	Logger    *logging.Logger
	Clock     func() time.Time
	Location  *time.Location
}

// Engine is the dialog state machine. Turns for one session are serialized by the session store.
type Engine struct {
	sessions  *session.Store
	slots     SlotFinder
	ledger    Ledger
	faq       FAQ
	llm       LLMClient
	model     string
	maxTokens int32
	recorder  Recorder
	logger    *logging.Logger
	now       func() time.Time
	loc       *time.Location
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Sessions == nil {
		panic("conversation: session store cannot be nil")
	}
	if cfg.Slots == nil {
		panic("conversation: slot finder cannot be nil")
	}
	if cfg.Ledger == nil {
		panic("conversation: ledger cannot be nil")
	}
	if cfg.FAQ == nil {
		panic("conversation: faq cannot be nil")
	}
	e := &Engine{
		sessions:  cfg.Sessions,
		slots:     cfg.Slots,
		ledger:    cfg.Ledger,
		faq:       cfg.FAQ,
		llm:       cfg.LLM,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		now:       cfg.Clock,
		loc:       cfg.Location,
	}
	if e.llm == nil {
		e.llm = UnavailableLLMClient{}
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 512
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	return e
}

// Handle processes one message for sessionID and returns exactly one response. Collaborator
// failures become apology replies; an error is returned only when session state cannot be
// loaded or saved.
func (e *Engine) Handle(ctx context.Context, sessionID, message string) (Response, error) {
	started := time.Now()
	var (
		resp   Response
		intent Intent
		before session.DialogState
		after  session.DialogState
	)
	err := e.sessions.Update(ctx, sessionID, func(st *session.State) error {
		before = st.DialogState
		resp, intent = e.step(ctx, st, message)
		after = st.DialogState
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: handle turn: %w", err)
	}

	elapsed := time.Since(started)
	if e.recorder != nil {
		e.recorder.ObserveIntent(string(intent))
		e.recorder.ObserveTurn(before.String(), resp.Action(), elapsed)
	}
	e.logger.Info("chat turn handled",
		"session_id", sessionID,
		"intent", string(intent),
		"state_before", before.String(),
		"dialog_state", after.String(),
		"action", resp.Action(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}

func (e *Engine) step(ctx context.Context, st *session.State, message string) (Response, Intent) {
	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)
	intent := Classify(st.DialogState, text)
	switch intent {
	case IntentCancel:
		return e.startCancellation(st), intent
	case IntentFAQ:
		return e.answerFAQ(ctx, st, text), intent
	case IntentCancelFlow:
		return e.continueCancellation(ctx, st, text, lower), intent
	case IntentRestart:
		*st = *session.New(st.SessionID)
		return Reply{Message: msgRestart}, intent
	case IntentPipeline:
		return e.advance(ctx, st, text, lower), intent
	case IntentTriage:
		return e.triage(st, text, lower), intent
	default:
		return e.fallback(ctx, text), intent
	}
}

func (e *Engine) today() time.Time {
	return e.now().In(e.loc)
}

// triage handles the first message of a fresh session.
func (e *Engine) triage(st *session.State, text, lower string) Response {
	switch {
	case isPureGreeting(lower):
		st.DialogState = session.StateAwaitingReason
		return Reply{Message: msgGreeting}
	case containsAny(lower, symptomWords):
		st.Reason = text
		st.DialogState = session.StateAwaitingAppointmentType
		return Reply{Message: msgSymptom}
	case containsAny(lower, bookingWords):
		st.DialogState = session.StateAwaitingReason
		return Reply{Message: msgAskReason}
	default:
		st.DialogState = session.StateAwaitingReason
		return Reply{Message: msgIntro}
	}
}

func (e *Engine) advance(ctx context.Context, st *session.State, text, lower string) Response {
	switch st.DialogState {
	case session.StateAwaitingReason:
		if !isValidReason(text) {
			return Reply{Message: msgVagueReason}
		}
		st.Reason = text
		st.DialogState = session.StateAwaitingAppointmentType
		if containsAny(lower, urgentWords) {
			return Reply{Message: msgUrgent}
		}
		return Reply{Message: msgSuggestType}

	case session.StateAwaitingAppointmentType:
		key, ok := parseAppointmentType(lower)
		if !ok && isAffirmative(lower) {
			key, ok = DefaultAppointmentType, true
		}
		if !ok {
			return Reply{Message: msgTypeMenu}
		}
		typ, _ := LookupAppointmentType(key)
		st.AppointmentType = key
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: fmt.Sprintf(msgTypeChosen, typ.Name, typ.Minutes)}

	case session.StateAwaitingDate:
		return e.chooseDate(st, text)

	case session.StateAwaitingTime:
		pref, ok := parseTimeOfDay(lower)
		if !ok {
			return Reply{Message: msgBadTime}
		}
		st.PreferredTimeOfDay = pref
		return e.offerDoctors(ctx, st)

	case session.StateAwaitingDoctor:
		doc, ok := pickDoctor(text, st.Doctors)
		if !ok {
			return Reply{Message: msgBadDoctor}
		}
		st.Doctor = &doc
		return e.offerSlots(ctx, st)

	case session.StateAwaitingSlot:
		slot, ok := pickSlot(text, st.AvailableSlots)
		if !ok {
			return Reply{Message: msgBadSlot}
		}
		st.SelectedSlot = slot
		st.DialogState = session.StateAwaitingName
		return Reply{Message: msgAskName}

	case session.StateAwaitingName:
		if !isValidName(text) {
			return Reply{Message: msgBadName}
		}
		st.Patient.Name = text
		st.DialogState = session.StateAwaitingPhone
		return Reply{Message: msgAskPhone}

	case session.StateAwaitingPhone:
		if !isValidPhone(text) {
			return Reply{Message: msgBadPhone}
		}
		st.Patient.Phone = text
		st.DialogState = session.StateAwaitingEmail
		return Reply{Message: msgAskEmail}

	case session.StateAwaitingEmail:
		if !isValidEmail(text) {
			return Reply{Message: msgBadEmail}
		}
		st.Patient.Email = text
		st.DialogState = session.StateAwaitingConfirm
		return Reply{Message: summary(st)}

	case session.StateAwaitingConfirm:
		if isAffirmative(lower) || strings.Contains(lower, "confirm") || hasWord(lower, "book") {
			return e.book(ctx, st)
		}
		return e.change(ctx, st, lower)
	}
	return e.fallback(ctx, text)
}

func (e *Engine) chooseDate(st *session.State, text string) Response {
	today := e.today()
	day, ok := dates.ParseNatural(text, today)
	if !ok {
		return Reply{Message: msgBadDate}
	}
	iso := dates.Format(day)
	if iso < dates.Format(today) {
		return Reply{Message: msgPastDate}
	}
	st.PreferredDate = iso
	st.DialogState = session.StateAwaitingTime
	return Reply{Message: msgAskTime}
}

// offerDoctors lists doctors with at least one open slot on the preferred date. With none
// the patient is sent back to pick another date.
func (e *Engine) offerDoctors(ctx context.Context, st *session.State) Response {
	slots, err := e.slots.Check(ctx, st.PreferredDate, st.AppointmentType, 0)
	if err != nil {
		e.logger.Warn("availability lookup failed", "session_id", st.SessionID, "error", err)
		return Reply{Message: msgLookupDown}
	}
	doctors := availability.Summaries(availability.Open(slots))
	if len(doctors) == 0 {
		st.Doctors = nil
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: msgNoDoctors}
	}
	st.Doctors = doctors
	st.DialogState = session.StateAwaitingDoctor
	return DoctorsResponse{Message: msgDoctors, Doctors: doctors}
}

// offerSlots lists the chosen doctor's open slots on the preferred date.
func (e *Engine) offerSlots(ctx context.Context, st *session.State) Response {
	open, err := e.openSlots(ctx, st)
	if err != nil {
		e.logger.Warn("availability lookup failed", "session_id", st.SessionID, "error", err)
		return Reply{Message: msgLookupDown}
	}
	if len(open) == 0 {
		st.AvailableSlots = nil
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: msgNoSlots}
	}
	st.AvailableSlots = open
	st.DialogState = session.StateAwaitingSlot
	return SlotsResponse{Message: fmt.Sprintf(msgSlots, st.Doctor.Name), Slots: firstSlots(open)}
}

func (e *Engine) openSlots(ctx context.Context, st *session.State) ([]availability.TimeSlot, error) {
	slots, err := e.slots.Check(ctx, st.PreferredDate, st.AppointmentType, st.Doctor.DoctorID)
	if err != nil {
		return nil, err
	}
	return availability.Open(slots), nil
}

func firstSlots(slots []availability.TimeSlot) []availability.TimeSlot {
	if len(slots) > maxOfferedSlots {
		return slots[:maxOfferedSlots]
	}
	return slots
}

func summary(st *session.State) string {
	typ, _ := LookupAppointmentType(st.AppointmentType)
	doctorName, specialization := "", ""
	if st.Doctor != nil {
		doctorName, specialization = st.Doctor.Name, st.Doctor.Specialization
	}
	if specialization == "" {
		specialization = "General Physician"
	}
	return fmt.Sprintf(msgSummary,
		typ.Name, typ.Minutes,
		doctorName, specialization,
		st.PreferredDate,
		st.SelectedSlot,
		st.Patient.Name,
		st.Patient.Phone,
		st.Patient.Email,
		st.Reason,
	)
}

// change routes a non-confirming reply at the summary. Naming a field reopens that step;
// collected fields are kept until new input replaces them.
func (e *Engine) change(ctx context.Context, st *session.State, lower string) Response {
	switch {
	case hasWord(lower, "date", "day"):
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: msgNewDate}
	case hasWord(lower, "doctor"):
		return e.offerDoctors(ctx, st)
	case hasWord(lower, "time", "slot") && st.Doctor != nil:
		return e.offerSlots(ctx, st)
	}
	return Reply{Message: msgChange}
}

func (e *Engine) book(ctx context.Context, st *session.State) Response {
	if st.Doctor == nil {
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: msgNewDate}
	}
	req := bookings.Request{
		DoctorID:        st.Doctor.DoctorID,
		DoctorName:      st.Doctor.Name,
		AppointmentType: st.AppointmentType,
		Date:            st.PreferredDate,
		StartTime:       st.SelectedSlot,
		Reason:          st.Reason,
		PatientName:     st.Patient.Name,
		PatientEmail:    st.Patient.Email,
		PatientPhone:    st.Patient.Phone,
	}
	booking, err := e.ledger.Book(ctx, req)
	switch {
	case errors.Is(err, bookings.ErrSlotTaken):
		return e.slotTaken(ctx, st)
	case errors.Is(err, bookings.ErrInvalidRequest):
		e.logger.Warn("booking rejected", "session_id", st.SessionID, "error", err)
		return Reply{Message: fmt.Sprintf(msgBookFailed, "some of the details look invalid.")}
	case err != nil:
		e.logger.Warn("booking failed", "session_id", st.SessionID, "error", err)
		return Reply{Message: fmt.Sprintf(msgBookFailed, "we couldn't save your appointment.")}
	}

	st.DialogState = session.StateCompleted
	st.LastBookingID = booking.BookingID
	return BookingConfirmed{
		Message: fmt.Sprintf(msgConfirmed, st.PreferredDate, st.SelectedSlot, st.Doctor.Name, booking.ConfirmationCode),
		Details: *booking,
	}
}

// slotTaken recovers from losing a race for the selected slot.
func (e *Engine) slotTaken(ctx context.Context, st *session.State) Response {
	e.logger.Info("selected slot taken before confirmation",
		"session_id", st.SessionID,
		"doctor_id", st.Doctor.DoctorID,
		"date", st.PreferredDate,
		"start_time", st.SelectedSlot,
	)
	st.SelectedSlot = ""
	open, err := e.openSlots(ctx, st)
	if err != nil {
		e.logger.Warn("availability lookup failed", "session_id", st.SessionID, "error", err)
	}
	if len(open) == 0 {
		st.AvailableSlots = nil
		st.DialogState = session.StateAwaitingDate
		return Reply{Message: fmt.Sprintf(msgDayFull, st.Doctor.Name, st.PreferredDate)}
	}
	st.AvailableSlots = open
	st.DialogState = session.StateAwaitingSlot
	return SlotsResponse{Message: fmt.Sprintf(msgSlotTaken, st.Doctor.Name), Slots: firstSlots(open)}
}

func (e *Engine) startCancellation(st *session.State) Response {
	if st.LastBookingID != "" {
		st.DialogState = session.StateAwaitingCancelConfirm
		return Reply{Message: msgCancelExisting}
	}
	st.DialogState = session.StateAwaitingCancellationCode
	return Reply{Message: msgAskCancelCode}
}

func (e *Engine) continueCancellation(ctx context.Context, st *session.State, text, lower string) Response {
	switch st.DialogState {
	case session.StateAwaitingCancelConfirm:
		if !isYes(lower) {
			st.DialogState = session.StateNew
			return Reply{Message: msgKeepExisting}
		}
		result, failed := e.cancel(ctx, st, st.LastBookingID)
		if failed != nil {
			return failed
		}
		st.LastBookingID = ""
		st.DialogState = session.StateNew
		if result.AlreadyCancelled() {
			return Reply{Message: msgAlreadyCancelled}
		}
		return Reply{Message: msgCancelled}

	case session.StateAwaitingCancellationCode:
		code, ok := parseConfirmationCode(text)
		if !ok {
			return Reply{Message: msgBadCode}
		}
		booking, err := e.ledger.GetByConfirmation(ctx, code)
		if errors.Is(err, bookings.ErrBookingNotFound) {
			return Reply{Message: msgCodeNotFound}
		}
		if err != nil {
			e.logger.Warn("booking lookup failed", "session_id", st.SessionID, "error", err)
			return Reply{Message: msgCancelFailed}
		}
		st.CancelTarget = booking
		st.DialogState = session.StateAwaitingCancelCodeConfirm
		doctor := booking.DoctorName
		if doctor == "" {
			doctor = "Doctor"
		}
		return Reply{Message: fmt.Sprintf(msgFoundBooking, booking.Date, booking.StartTime, doctor)}

	case session.StateAwaitingCancelCodeConfirm:
		target := st.CancelTarget
		if !isYes(lower) || target == nil {
			st.CancelTarget = nil
			st.DialogState = session.StateNew
			return Reply{Message: msgKeepByCode}
		}
		result, failed := e.cancel(ctx, st, target.BookingID)
		if failed != nil {
			return failed
		}
		if st.LastBookingID == target.BookingID {
			st.LastBookingID = ""
		}
		st.CancelTarget = nil
		st.DialogState = session.StateNew
		if result.AlreadyCancelled() {
			return Reply{Message: msgAlreadyCancelled}
		}
		return Reply{Message: msgCodeCancelled}
	}
	return e.fallback(ctx, text)
}

// cancel returns a non-nil reply when the ledger could not cancel ref. A missing booking
// resets the side channel; other failures keep the state so the patient can retry.
func (e *Engine) cancel(ctx context.Context, st *session.State, ref string) (*bookings.CancelResult, Response) {
	result, err := e.ledger.Cancel(ctx, ref)
	if errors.Is(err, bookings.ErrBookingNotFound) {
		if st.LastBookingID == ref {
			st.LastBookingID = ""
		}
		st.CancelTarget = nil
		st.DialogState = session.StateNew
		return nil, Reply{Message: msgBookingGone}
	}
	if err != nil {
		e.logger.Warn("cancellation failed", "session_id", st.SessionID, "booking_ref", ref, "error", err)
		return nil, Reply{Message: msgCancelFailed}
	}
	e.logger.Info("cancelled from chat", "session_id", st.SessionID, "booking_id", result.BookingID, "result", result.Message)
	return result, nil
}

// answerFAQ answers without moving the dialog state.
func (e *Engine) answerFAQ(ctx context.Context, st *session.State, question string) Response {
	answer, err := e.faq.Answer(ctx, question)
	if err != nil {
		e.logger.Warn("faq lookup failed", "session_id", st.SessionID, "error", err)
		answer = msgFAQDown
	}
	return Reply{Message: answer + "\n\n" + resumptionPrompt(st.DialogState)}
}

// fallback asks the language model when no structured state applies.
func (e *Engine) fallback(ctx context.Context, text string) Response {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{SystemPrompt(e.today())},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: text}},
		MaxTokens:   e.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		e.logger.Warn("llm fallback failed", "error", err)
		return Reply{Message: msgRephrase}
	}
	action, ok := parseLLMAction(resp.Text)
	if !ok {
		e.logger.Warn("llm fallback returned no action", "stop_reason", resp.StopReason)
		return Reply{Message: msgRephrase}
	}
	if action.Action == "faq" && strings.TrimSpace(action.Question) != "" {
		answer, err := e.faq.Answer(ctx, action.Question)
		if err != nil {
			e.logger.Warn("faq lookup failed", "error", err)
			return Reply{Message: msgFAQDown}
		}
		return Reply{Message: answer}
	}
	if strings.TrimSpace(action.Message) == "" {
		return Reply{Message: msgNotUnderstood}
	}
	return Reply{Message: action.Message}
}
