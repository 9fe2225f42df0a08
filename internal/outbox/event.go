package outbox

// Event is the domain event envelope written to the outbox table within the
// transaction that produced it. The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by this service. Downstream consumers (search indexer,
// notifications) subscribe instead of polling admin lists.
const (
	EventAppointmentScheduled = "marketplace.appointment.scheduled.v1"
	EventAppointmentCancelled = "marketplace.appointment.cancelled.v1"
	EventVerificationDecided  = "marketplace.doctor.verification.decided.v1"
	EventSubscriptionChanged  = "marketplace.doctor.subscription.changed.v1"
)
