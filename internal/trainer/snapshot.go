package trainer

// Snapshot is everything needed to resume a session where it was left
type Snapshot struct {
	WeekNumber               int            `json:"weekNumber"`
	DayName                  string         `json:"dayName"`
	ExerciseIndex            int            `json:"exerciseIndex"`
	Phase                    Phase          `json:"phase"`
	TimeLeftInSeconds        int            `json:"timeLeftInSeconds"`
	InitialDurationInSeconds int            `json:"initialDurationInSeconds"`
	AccumulatedDurations     PerformanceMap `json:"accumulatedDurations"`
	AccumulatedRoutes        RouteMap       `json:"accumulatedRoutes"`
	AccumulatedHeartRate     HeartRateMap   `json:"accumulatedHeartRate,omitempty"`
}

// Position is the step and phase the snapshot points at
func (s Snapshot) Position() Position {
	return Position{Index: s.ExerciseIndex, Phase: s.Phase}
}

// Progress accompanies a snapshot so the caller can record what was done so far
type Progress struct {
	VisitedIndices []int          `json:"visitedIndices"`
	Performance    PerformanceMap `json:"performance"`
	Routes         RouteMap       `json:"routes"`
	HeartRate      HeartRateMap   `json:"heartRate,omitempty"`
}

// Outcome is the final result of a session
type Outcome struct {
	Reason         CloseReason    `json:"reason"`
	VisitedIndices []int          `json:"visitedIndices"`
	Performance    PerformanceMap `json:"performance"`
	Routes         RouteMap       `json:"routes"`
	HeartRate      HeartRateMap   `json:"heartRate,omitempty"`
}

// SessionState is the render read model
type SessionState struct {
	Status              SessionStatus
	Index               int
	Total               int
	StepName            string
	Quantity            string
	Phase               Phase
	TimeLeft            int
	InitialDuration     int
	ElapsedSeconds      int // wall clock of a rep based exercise
	Timed               bool
	Display             string
	Running             bool
	Trackable           bool
	LocationStatus      LocationStatus
	RouteDistanceMeters float64
	HeartRateBPM        int
	NextAction          NextAction
	LastCue             string
	VisitedCount        int
}
