package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// CanConfirm reports whether an order in the given status may be confirmed.
// Re-confirming an already confirmed order would decrement its stock a second
// time, so confirmed is terminal here; any other stored value may proceed.
func CanConfirm(from Status) bool {
	return from != StatusConfirmed
}
