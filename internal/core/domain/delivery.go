package domain

import "sync"

// ChangeEvent is raised by the platform store when a watched data type
// changed. Ack is the platform completion handler; it may be nil.
type ChangeEvent struct {
	DataType DataType
	Ack      func()
}

// BackgroundDelivery is one change notification routed to a resource.
// It must be acknowledged exactly once after it has been handled.
type BackgroundDelivery struct {
	Resource Resource

	ack  func()
	once *sync.Once
}

// NewBackgroundDelivery wraps a platform acknowledgement.
func NewBackgroundDelivery(r Resource, ack func()) BackgroundDelivery {
	return BackgroundDelivery{Resource: r, ack: ack, once: &sync.Once{}}
}

// Acknowledge invokes the platform acknowledgement. Calls after the first
// are no-ops.
func (d BackgroundDelivery) Acknowledge() {
	if d.once == nil || d.ack == nil {
		return
	}
	d.once.Do(d.ack)
}

// Frequency is how often the platform should wake the process for changes.
type Frequency string

// Delivery frequencies.
const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// DeliveryFrequency returns the wake-up frequency used for a data type.
func DeliveryFrequency(dt DataType) Frequency {
	switch dt {
	case DataTypeBiologicalSex, DataTypeDateOfBirth, DataTypeHeight, DataTypeBodyMass, DataTypeBodyFatPercentage:
		return FrequencyDaily
	case DataTypeWorkout, DataTypeSleepAnalysis, DataTypeMindfulSession:
		return FrequencyImmediate
	default:
		return FrequencyHourly
	}
}
