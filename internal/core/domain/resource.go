package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Resource is a logical health-data category that is read and synced as a unit.
type Resource string

// Supported resources.
const (
	ResourceProfile        Resource = "profile"
	ResourceBody           Resource = "body"
	ResourceSleep          Resource = "sleep"
	ResourceActivity       Resource = "activity"
	ResourceWorkout        Resource = "workout"
	ResourceMenstrualCycle Resource = "menstrual_cycle"

	ResourceGlucose              Resource = "vitals.glucose"
	ResourceBloodPressure        Resource = "vitals.blood_pressure"
	ResourceHeartRate            Resource = "vitals.heart_rate"
	ResourceHeartRateVariability Resource = "vitals.heart_rate_variability"
	ResourceBloodOxygen          Resource = "vitals.blood_oxygen"
	ResourceRespiratoryRate      Resource = "vitals.respiratory_rate"
	ResourceTemperature          Resource = "vitals.temperature"
	ResourceMindfulSession       Resource = "vitals.mindful_session"

	ResourceWater    Resource = "nutrition.water"
	ResourceCaffeine Resource = "nutrition.caffeine"
)

// ProviderHealthKit is the connected-source provider tag for the platform store.
const ProviderHealthKit = "apple_health_kit"

// DataType identifies an underlying platform data type. One resource is
// backed by one or more data types.
type DataType string

// Platform data types.
const (
	DataTypeBiologicalSex DataType = "biological_sex"
	DataTypeDateOfBirth   DataType = "date_of_birth"
	DataTypeHeight        DataType = "height"

	DataTypeBodyMass          DataType = "body_mass"
	DataTypeBodyFatPercentage DataType = "body_fat_percentage"

	DataTypeSleepAnalysis DataType = "sleep_analysis"

	DataTypeActiveEnergyBurned DataType = "active_energy_burned"
	DataTypeBasalEnergyBurned  DataType = "basal_energy_burned"
	DataTypeStepCount          DataType = "step_count"
	DataTypeFlightsClimbed     DataType = "flights_climbed"
	DataTypeDistanceWalking    DataType = "distance_walking_running"
	DataTypeVO2Max             DataType = "vo2_max"

	DataTypeWorkout DataType = "workout"

	DataTypeMenstrualFlow DataType = "menstrual_flow"

	DataTypeBloodGlucose           DataType = "blood_glucose"
	DataTypeBloodPressureSystolic  DataType = "blood_pressure_systolic"
	DataTypeBloodPressureDiastolic DataType = "blood_pressure_diastolic"
	DataTypeHeartRate              DataType = "heart_rate"
	DataTypeHeartRateVariability   DataType = "heart_rate_variability_sdnn"
	DataTypeOxygenSaturation       DataType = "oxygen_saturation"
	DataTypeRespiratoryRate        DataType = "respiratory_rate"
	DataTypeBodyTemperature        DataType = "body_temperature"
	DataTypeMindfulSession         DataType = "mindful_session"

	DataTypeDietaryWater    DataType = "dietary_water"
	DataTypeDietaryCaffeine DataType = "dietary_caffeine"
)

var resourceDataTypes = map[Resource][]DataType{
	ResourceProfile:  {DataTypeBiologicalSex, DataTypeDateOfBirth, DataTypeHeight},
	ResourceBody:     {DataTypeBodyMass, DataTypeBodyFatPercentage},
	ResourceSleep:    {DataTypeSleepAnalysis, DataTypeHeartRate, DataTypeHeartRateVariability, DataTypeOxygenSaturation, DataTypeRespiratoryRate},
	ResourceActivity: {DataTypeActiveEnergyBurned, DataTypeBasalEnergyBurned, DataTypeStepCount, DataTypeFlightsClimbed, DataTypeDistanceWalking, DataTypeVO2Max},
	ResourceWorkout:  {DataTypeWorkout, DataTypeHeartRate, DataTypeRespiratoryRate},

	ResourceMenstrualCycle: {DataTypeMenstrualFlow},

	ResourceGlucose:              {DataTypeBloodGlucose},
	ResourceBloodPressure:        {DataTypeBloodPressureSystolic, DataTypeBloodPressureDiastolic},
	ResourceHeartRate:            {DataTypeHeartRate},
	ResourceHeartRateVariability: {DataTypeHeartRateVariability},
	ResourceBloodOxygen:          {DataTypeOxygenSaturation},
	ResourceRespiratoryRate:      {DataTypeRespiratoryRate},
	ResourceTemperature:          {DataTypeBodyTemperature},
	ResourceMindfulSession:       {DataTypeMindfulSession},

	ResourceWater:    {DataTypeDietaryWater},
	ResourceCaffeine: {DataTypeDietaryCaffeine},
}

// AllResources returns every supported resource in a stable order.
func AllResources() []Resource {
	out := make([]Resource, 0, len(resourceDataTypes))
	for r := range resourceDataTypes {
		out = append(out, r)
	}
	SortResources(out)
	return out
}

// SortResources sorts resources lexically in place.
func SortResources(rs []Resource) {
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.TrimSpace(strings.ToLower(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown resource %q", ErrInvalidInput, s)
	}
	return r, nil
}

// IsValid returns true if the resource is recognised.
func (r Resource) IsValid() bool {
	_, ok := resourceDataTypes[r]
	return ok
}

// IsHistorical returns true if the resource has a time dimension and
// therefore goes through a historical backfill before daily sync.
// Profile is a point-in-time snapshot and is always synced as daily.
func (r Resource) IsHistorical() bool {
	return r != ResourceProfile
}

// DataTypes returns the platform data types backing this resource.
func (r Resource) DataTypes() []DataType {
	dts := resourceDataTypes[r]
	out := make([]DataType, len(dts))
	copy(out, dts)
	return out
}

// String returns the string representation.
func (r Resource) String() string {
	return string(r)
}

// WritableResource is a resource the SDK can write back to the platform store.
type WritableResource string

// Writable resources.
const (
	WritableWater          WritableResource = WritableResource(ResourceWater)
	WritableCaffeine       WritableResource = WritableResource(ResourceCaffeine)
	WritableMindfulSession WritableResource = WritableResource(ResourceMindfulSession)
)

// ParseWritableResource validates a writable resource name.
func ParseWritableResource(s string) (WritableResource, error) {
	w := WritableResource(strings.TrimSpace(strings.ToLower(s)))
	switch w {
	case WritableWater, WritableCaffeine, WritableMindfulSession:
		return w, nil
	default:
		return "", fmt.Errorf("%w: resource %q is not writable", ErrInvalidInput, s)
	}
}

// Resource returns the readable counterpart.
func (w WritableResource) Resource() Resource {
	return Resource(w)
}

// DataType returns the single data type written for this resource.
func (w WritableResource) DataType() DataType {
	return resourceDataTypes[Resource(w)][0]
}

// ObservationPlan maps each resource to the data types to watch.
type ObservationPlan map[Resource][]DataType

// NewObservationPlan builds a plan for the given resources.
func NewObservationPlan(resources []Resource) ObservationPlan {
	plan := make(ObservationPlan, len(resources))
	for _, r := range resources {
		if r.IsValid() {
			plan[r] = r.DataTypes()
		}
	}
	return plan
}

// Owners resolves each data type to the resource that claims it. A data
// type shared by several resources is attributed to the first resource in
// lexical order, so a change fans in to exactly one sync.
func (p ObservationPlan) Owners() map[DataType]Resource {
	resources := make([]Resource, 0, len(p))
	for r := range p {
		resources = append(resources, r)
	}
	SortResources(resources)

	owners := make(map[DataType]Resource)
	for _, r := range resources {
		for _, dt := range p[r] {
			if _, taken := owners[dt]; !taken {
				owners[dt] = r
			}
		}
	}
	return owners
}

// DataTypes returns the distinct data types in the plan, sorted.
func (p ObservationPlan) DataTypes() []DataType {
	owners := p.Owners()
	out := make([]DataType, 0, len(owners))
	for dt := range owners {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
