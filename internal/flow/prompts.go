package flow

// Conversation prompts sent over WhatsApp. Formatting uses WhatsApp markdown
// (*bold*) and emoji the way the production templates do.

const promptWelcome = "👋 *Welcome to FareBot!*\n\n" +
	"I can help you book flights right here in WhatsApp.\n\n" +
	"Just tell me where you want to go, for example:\n" +
	"• _Book a flight from Delhi to Dubai_\n" +
	"• _I want to fly to London on 15 July_\n\n" +
	"Where would you like to travel?"

const promptAskSource = "🛫 Which city are you flying *from*?"

const promptAskDestination = "🛬 Great! And which city are you flying *to*?"

const promptAskDate = "📅 When would you like to travel?\n\n" +
	"You can say things like _tomorrow_, _next week_, _15 July_, or _2026-09-15_."

const promptAskPassengers = "👥 How many passengers are travelling?\n\n" +
	"For example: _2 adults and 1 child_, or just _1_."

const promptUnknownCity = "🤔 I couldn't find that city. Please try the city name or its airport code (e.g., _Delhi_ or _DEL_)."

const promptSameCity = "✋ The departure and destination cities can't be the same. Which city are you flying *to*?"

const promptInvalidDate = "🤔 I couldn't understand that date. Please try something like _tomorrow_, _15 July_, or _2026-09-15_."

const promptPastDate = "⏰ That date has already passed. Please pick a future travel date."

const promptInvalidPassengers = "🤔 I couldn't work out the passenger count. Please tell me like _2 adults and 1 child_."

const promptNoAdults = "✋ At least one adult passenger is required for a booking."

const promptTooManyPassengers = "✋ A single booking can hold at most 9 passengers. Please book larger groups separately."

const promptInvalidSelection = "🤔 Please reply with the option number of the flight you want (e.g., *1* or *Option 2*)."

const promptSelectionOutOfRange = "✋ That option isn't on the list. Please pick one of the numbered flights above."

const promptNoFlights = "❌ Sorry, no flights are available on that route for your search.\n\n" +
	"📅 Would you like to try a different date?"

const promptPassengerDetailsFormat = "Please send their details in this format:\n\n" +
	"_Full Name, Date of Birth, Passport Number, Nationality_\n\n" +
	"Example:\n_John Doe, 15-Mar-1990, A1234567, Indian_"

const promptInvalidPassengerDetails = "🤔 I couldn't read those details. " + promptPassengerDetailsFormat

const promptAskSSR = "🛎️ Any special requests for your trip?\n\n" +
	"🍽️ *Meals:* vegetarian, vegan, halal, kosher, diabetic\n" +
	"💺 *Seats:* window, aisle, extra legroom\n" +
	"♿ *Assistance:* wheelchair\n" +
	"🧳 *Baggage:* extra baggage, sports equipment\n\n" +
	"Reply with what you need, or *skip* if none."

const promptInvalidSSR = "🤔 I couldn't match that to a service we offer. " +
	"Try _vegetarian meal_, _window seat_, _wheelchair_, or _extra baggage_ — or reply *skip*."

const promptConfirmHint = "Reply *YES* to confirm your booking or *NO* to cancel."

const promptBookingCancelled = "❌ No problem, I've cancelled this booking.\n\n" +
	"Just message me whenever you want to plan another trip. ✈️"

const promptResetDone = "🔄 Okay, let's start fresh!\n\n" + promptWelcome

const promptHandoff = "🙏 I'm sorry, I'm having trouble understanding.\n\n" +
	"I've passed your conversation to our support team. Your reference is *%s* — " +
	"an agent will reach out to you shortly."

const promptBookingFailed = "😔 Something went wrong while finalizing your booking.\n\n" +
	"Our team has been notified. Your support reference is *%s* — please quote it if you contact us."

const promptCompletedThanks = "🙏 You're welcome! Safe travels, and message me anytime to book another flight. ✈️"
