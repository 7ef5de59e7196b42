package cart

// State is the persisted cart representation: the full items/stall
// tuple, saved after every mutation and restored verbatim on the next
// load. Presentation flags are deliberately not part of it.
type State struct {
	Items   []Item `json:"items"`
	StallID uint64 `json:"stallId"`
}

// Store saves and restores cart state. Load returns (nil, nil) when
// nothing has been saved yet.
type Store interface {
	Save(state *State) error
	Load() (*State, error)
}
