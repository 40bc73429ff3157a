package slotted

// RID identifies a record inside a record file:
// Page: page number
// Slot: slot index within that page's directory
//
// A RID is stable for the life of the record; deleting a record tombstones
// its slot but never renumbers the others.
type RID struct {
	Page uint32
	Slot uint16
}
