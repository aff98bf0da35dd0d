package models

// Key is a pre-provisioned one-time credential. Once Burned is set, BurnedBy
// names the user that received it and neither field changes again.
type Key struct {
	Token    string
	Burned   bool
	BurnedBy *int64
}
