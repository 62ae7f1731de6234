// Package chat is the scripted booking assistant. Dialogue is data: each
// Script is an ordered list of timed bot messages played by a Scheduler,
// and user events drive the same booking service the wizard uses.
package chat

import (
	"fmt"
	"time"
)

// Prompt names the input widget a client should open after a message.
type Prompt string

const (
	PromptNone         Prompt = ""
	PromptDepartment   Prompt = "department"
	PromptLocation     Prompt = "location"
	PromptDateTime     Prompt = "date_time"
	PromptPatient      Prompt = "patient"
	PromptConfirmation Prompt = "confirmation"
	PromptChatInput    Prompt = "chat_input"
)

// Option is a quick-reply button; choosing it sends Event back.
type Option struct {
	Label string    `json:"label"`
	Event EventType `json:"event"`
}

// Step is one bot message shown after Delay of typing.
type Step struct {
	Delay   time.Duration
	Message string
	Options []Option
	Prompt  Prompt
}

// Script is played in order by a Scheduler.
type Script []Step

const (
	welcomeText = "Hello! 👋 Welcome to KIMS Hospital. I'm here to help you book your appointment quickly and easily."
	proceedText = "How would you like to proceed?"
)

// WelcomeScript greets a new chat and offers the two modes.
func WelcomeScript() Script {
	return Script{
		{Delay: 1500 * time.Millisecond, Message: welcomeText},
		{Delay: 2000 * time.Millisecond, Message: proceedText, Options: []Option{
			{Label: "📅 Book An Appointment", Event: EventStartBooking},
			{Label: "💬 Chat with Bot", Event: EventChatMode},
		}},
	}
}

// RestartScript greets again after a completed booking.
func RestartScript() Script {
	return Script{
		{Delay: 2000 * time.Millisecond, Message: welcomeText},
		{Delay: 1800 * time.Millisecond, Message: proceedText, Options: []Option{
			{Label: "📅 Book Another Appointment", Event: EventStartBooking},
			{Label: "💬 Chat with Bot", Event: EventChatMode},
		}},
	}
}

func StartBookingScript() Script {
	return Script{
		{Delay: 1200 * time.Millisecond, Message: "Great! First, please select the medical department you need:", Prompt: PromptDepartment},
	}
}

func ChatModeScript() Script {
	return Script{
		{
			Delay:   1800 * time.Millisecond,
			Message: "I'm here to help! Please tell me what you need assistance with. For example, you can say 'I need to see a dentist at the earliest' or 'I want to book a cardiology appointment'.",
			Prompt:  PromptChatInput,
		},
	}
}

// GeneralScript answers free text that matched no intent.
func GeneralScript() Script {
	return Script{
		{Delay: 1100 * time.Millisecond, Message: "I understand you're looking for medical assistance."},
		{Delay: 1000 * time.Millisecond, Message: "Let me help you book an appointment with the right specialist:", Prompt: PromptDepartment},
	}
}

func DentistCheckScript() Script {
	return Script{
		{Delay: 1000 * time.Millisecond, Message: "Let me check our dentist availability for you..."},
	}
}

// DentistOfferScript proposes the earliest dentist appointment.
func DentistOfferScript(doctor, when, slot string) Script {
	return Script{
		{
			Delay:   2400 * time.Millisecond,
			Message: fmt.Sprintf("Perfect! I found %s, our experienced dentist, available %s at %s. Would you like to book this appointment?", doctor, when, slot),
			Options: []Option{
				{Label: "✅ Book This Appointment", Event: EventAcceptOffer},
				{Label: "🔍 See Other Options", Event: EventDeclineOffer},
			},
		},
	}
}

func OfferAcceptedScript() Script {
	return Script{
		{Delay: 1000 * time.Millisecond, Message: "Perfect! Now I just need your contact information to complete the booking:", Prompt: PromptPatient},
	}
}

func OfferDeclinedScript() Script {
	return Script{
		{Delay: 800 * time.Millisecond, Message: "No problem! Let me show you all available options:", Prompt: PromptDepartment},
	}
}

func DepartmentScript(department string) Script {
	return Script{
		{Delay: 1400 * time.Millisecond, Message: fmt.Sprintf("Excellent choice! %s is one of our specialized departments with experienced doctors.", department)},
		{Delay: 1000 * time.Millisecond, Message: "Now, let's find the most convenient location for you:", Prompt: PromptLocation},
	}
}

func LocationScript(location string) Script {
	return Script{
		{Delay: 1100 * time.Millisecond, Message: fmt.Sprintf("Perfect! %s is a great choice.", location)},
		{Delay: 1200 * time.Millisecond, Message: "Now, please select your preferred date and time for the appointment:", Prompt: PromptDateTime},
	}
}

func SlotScript(doctor, date, slot string) Script {
	return Script{
		{Delay: 1500 * time.Millisecond, Message: fmt.Sprintf("Wonderful! You've selected an appointment with %s on %s at %s.", doctor, date, slot)},
		{Delay: 1100 * time.Millisecond, Message: "Now I need some basic information to complete your booking:", Prompt: PromptPatient},
	}
}

func PatientScript(firstName string) Script {
	return Script{
		{Delay: 1200 * time.Millisecond, Message: fmt.Sprintf("Thank you, %s! I have all the information needed.", firstName)},
		{Delay: 1400 * time.Millisecond, Message: "Let me confirm your appointment details and process your booking...", Prompt: PromptConfirmation},
	}
}

// ConfirmedScript closes a booking and offers to start another.
func ConfirmedScript() Script {
	return Script{
		{Delay: 1300 * time.Millisecond, Message: "🎉 Your appointment has been successfully booked!"},
		{Delay: 1600 * time.Millisecond, Message: "Thank you for choosing KIMS Hospital!"},
		{Delay: 1200 * time.Millisecond, Message: "Is there anything else I can help you with today?", Options: []Option{
			{Label: "🔄 Book Another Appointment", Event: EventRestart},
		}},
	}
}
