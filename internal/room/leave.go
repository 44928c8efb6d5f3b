package room

// LeaveReason classifies why a member left the room.
type LeaveReason string

const (
	LeaveDisconnect LeaveReason = "Disconnect"
	LeaveLeave      LeaveReason = "Leave"
	LeaveKick       LeaveReason = "Kick"
	LeaveBan        LeaveReason = "Ban"
)

// DefaultLeaveVocabulary maps the Action message contents that announce a
// departure to the reason they carry.
func DefaultLeaveVocabulary() map[string]LeaveReason {
	return map[string]LeaveReason{
		"ServerDisconnect": LeaveDisconnect,
		"ServerLeave":      LeaveLeave,
		"ServerKick":       LeaveKick,
		"ServerBan":        LeaveBan,
	}
}
