package dto

type AuthSSORequest struct {
	Payload string `json:"payload"`
}

type DepositRequest struct {
	Amount string `json:"amount"` // decimal as string
	Note   string `json:"note,omitempty"`
}

type ManualReleaseRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

type RefundRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

type TierUpgradeRequest struct {
	Tier string `json:"tier"` // plus / pro
}

type ProjectPublicationRequest struct {
	ProjectID string `json:"project_id"`
}

type WithdrawalRequest struct {
	Amount        string  `json:"amount"`
	Method        string  `json:"method"` // bank_transfer / platform_credit
	BankCode      *string `json:"bank_code,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason,omitempty"`
}
