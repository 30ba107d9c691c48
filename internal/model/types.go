package model

// Controller identifies which physical controller a table, policy or
// environment belongs to.
type Controller string

const (
	ControllerTraffic Controller = "traffic"
	ControllerRail    Controller = "rail"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ActionSpec is one legal action in a controller's action table. The index
// is the contract shared between training and serving; payload fields are
// controller-specific (Phase/Duration for traffic, BarrierState for rail).
type ActionSpec struct {
	Index        int    `json:"index"`
	Phase        string `json:"phase,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	BarrierState string `json:"barrier_state,omitempty"`
}

// Traffic phase labels.
const (
	PhaseNS = "NS"
	PhaseEW = "EW"
)

// Rail barrier action labels.
const (
	BarrierOpen  = "OPEN"
	BarrierClose = "CLOSE"
)

// TrafficObservation is the raw serving-side observation for a junction.
// Optional fields default during encoding: wait = 2x queue, IsNSGreen = 1,
// Progress = 0.
type TrafficObservation struct {
	QueueNS   float64  `json:"queue_ns"`
	QueueEW   float64  `json:"queue_ew"`
	WaitNS    *float64 `json:"wait_ns,omitempty"`
	WaitEW    *float64 `json:"wait_ew,omitempty"`
	IsNSGreen *float64 `json:"is_ns_green,omitempty"`
	Progress  *float64 `json:"progress,omitempty"`
}

// RailObservation is the raw serving-side observation for a crossing.
type RailObservation struct {
	EtaMs         float64 `json:"eta_ms"`
	BarrierClosed float64 `json:"barrier_closed"`
}

// Decision is the opaque policy's answer: an action-table index plus an
// optional critic value estimate. Consumed immediately, never stored.
type Decision struct {
	ActionIndex   int      `json:"action_index"`
	ValueEstimate *float64 `json:"value_estimate,omitempty"`
}

// Signal head colors used in traffic plans.
const (
	LightGreen = "green"
	LightRed   = "red"
)

// TrafficPlan is the domain command for the traffic signal controller.
type TrafficPlan struct {
	NS          string `json:"ns"`
	EO          string `json:"eo"`
	DurationSec int    `json:"durationSec"`
}

// Barrier command states. The command vocabulary is OPEN/CLOSED while the
// action label vocabulary is OPEN/CLOSE.
const (
	BarrierStateOpen   = "OPEN"
	BarrierStateClosed = "CLOSED"
)

// RailCommand is the domain command for the rail-crossing barrier.
type RailCommand struct {
	State string `json:"state"`
}

// RailEnvMeta carries the environment parameters persisted alongside a
// trained rail policy; the rail observation codec needs MaxEtaMs.
type RailEnvMeta struct {
	MaxEtaMs      int     `json:"max_eta_ms"`
	TimeStepMs    int     `json:"time_step_ms,omitempty"`
	CloseLeadMs   int     `json:"close_lead_ms,omitempty"`
	FailPenalty   float64 `json:"fail_penalty,omitempty"`
	ClosePenalty  float64 `json:"close_penalty,omitempty"`
	SuccessReward float64 `json:"success_reward,omitempty"`
}

// PolicyMetadata is the persisted metadata record written at training time
// and consumed at serving time.
type PolicyMetadata struct {
	VersionedRecord
	Controller     Controller   `json:"controller,omitempty"`
	ActionMapping  []ActionSpec `json:"action_mapping"`
	Env            *RailEnvMeta `json:"env,omitempty"`
	Algo           string       `json:"algo,omitempty"`
	TrainedAtUTC   string       `json:"trained_at,omitempty"`
	ObservationLen int          `json:"observation_len,omitempty"`
}

// RunSummary is the persisted outcome of a training or demo run.
type RunSummary struct {
	VersionedRecord
	RunID        string     `json:"run_id"`
	Controller   Controller `json:"controller"`
	CreatedAtUTC string     `json:"created_at_utc"`
	Seed         int64      `json:"seed"`
	Episodes     int        `json:"episodes"`
	TotalSteps   int        `json:"total_steps"`
	MeanReward   float64    `json:"mean_reward"`
	BestReward   float64    `json:"best_reward"`
	TrainerName  string     `json:"trainer_name"`
	MetadataPath string     `json:"metadata_path,omitempty"`
}

// EpisodeRecord is one episode's outcome within a run.
type EpisodeRecord struct {
	VersionedRecord
	RunID       string  `json:"run_id"`
	Episode     int     `json:"episode"`
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	Terminal    string  `json:"terminal"`
}

// Float64Ptr is a convenience for building observations with optional
// fields set.
func Float64Ptr(v float64) *float64 { return &v }
