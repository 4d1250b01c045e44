package drill

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
	StatusGone    = 410
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Scenario constants. Thresholds mirror the service defaults so the drill
// can predict which gate each scripted candidate clears.
const (
	ATSThreshold  = 70.0
	ExamThreshold = 70.0
	ExamTotal     = 12
)
