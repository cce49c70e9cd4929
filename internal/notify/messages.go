package notify

// Notification texts, kept verbatim from the tracker's message catalog.
const (
	taskOverdueSubject  = "Task '%s' is now overdue. Consider completing or rescheduling it."
	taskUpcomingSubject = "Your task '%s' is due in 24 hours. Don't forget to finish it on time."

	projectOverdueSubject  = "Project '%s' is now overdue. Consider completing or rescheduling it."
	projectUpcomingSubject = "Your project '%s' is due in 24 hours. Don't forget to finish it on time."
)
