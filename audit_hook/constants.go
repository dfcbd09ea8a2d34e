package audithook

// Action constants for audit events.
const (
	// Contract actions
	ActionContractCreated   = "contract.created"
	ActionContractPurchased = "contract.purchased"
	ActionContractExpired   = "contract.expired"
	ActionContractSettled   = "contract.settled"
	ActionExpirySweep       = "contract.expiry_sweep"

	// Credit actions
	ActionCreditCreated    = "credit.created"
	ActionRiskScoreUpdated = "credit.risk_score_updated"

	// Settlement actions
	ActionTransferSubmitted = "transfer.submitted"
	ActionTransferConfirmed = "transfer.confirmed"
	ActionTransferFailed    = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceContract    = "contract"
	ResourceCredit      = "credit"
	ResourceTransaction = "transaction"
)

// Category constants for audit events.
const (
	CategoryTrading     = "trading"
	CategoryRisk        = "risk"
	CategorySettlement  = "settlement"
	CategoryMaintenance = "maintenance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePending = "pending"
)
