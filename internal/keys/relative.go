package keys

// RelativeEvent is a raw EV_REL sample read from a grabbed device.
type RelativeEvent struct {
	Axis  RelAxis
	Value int32
}
