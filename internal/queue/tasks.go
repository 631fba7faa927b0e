package queue

const TypeActivityRecord = "activity:record"

// ActivityRecordPayload describes one inventory mutation to append to the activity log.
type ActivityRecordPayload struct {
	UserID   string `json:"user_id"`
	Action   string `json:"action"`
	ItemID   string `json:"item_id,omitempty"`
	ItemName string `json:"item_name"`
}
