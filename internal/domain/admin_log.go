package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AdminAction string

const (
	AdminActionTransferApprove    AdminAction = "transfer_approve"
	AdminActionTransferReject     AdminAction = "transfer_reject"
	AdminActionBalanceAdd         AdminAction = "balance_add"
	AdminActionBalanceSubtract    AdminAction = "balance_subtract"
	AdminActionFeesUpdate         AdminAction = "fees_update"
	AdminActionFlagsUpdate        AdminAction = "flags_update"
	AdminActionStatusUpdate       AdminAction = "status_update"
	AdminActionTransactionCorrect AdminAction = "transaction_correct"
)

type AdminLog struct {
	ID           uuid.UUID
	AdminID      uuid.UUID
	Action       AdminAction
	TargetUserID *uuid.UUID
	TargetID     *uuid.UUID
	Details      json.RawMessage
	CreatedAt    time.Time
}
