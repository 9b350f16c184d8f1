package checkout

// Stage identifies one step of the checkout pipeline. A checkout advances
// through the stages in order and short-circuits to StageRejected on a
// validation failure.
type Stage string

const (
	StageReceived          Stage = "received"
	StageShippingValidated Stage = "shipping_validated"
	StageTaxCalculated     Stage = "tax_calculated"
	StageForwarded         Stage = "forwarded"
	StagePersisted         Stage = "persisted"
	StageAcknowledged      Stage = "acknowledged"
	StageRejected          Stage = "rejected"
)

// StageStatus records how a stage concluded.
type StageStatus string

const (
	// StageCompleted means the stage ran and succeeded.
	StageCompleted StageStatus = "completed"
	// StageDegraded means the stage could not run fully but checkout
	// proceeded on a fallback (unsupported tax endpoint, unconfigured vendor).
	StageDegraded StageStatus = "degraded"
	// StageSkipped means the stage was turned off (persistence feature flag).
	StageSkipped StageStatus = "skipped"
	// StageFailed terminates the checkout.
	StageFailed StageStatus = "failed"
)

// StageResult is the typed outcome of one pipeline stage.
type StageResult struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}
