// Package command turns controller radio text into typed commands.
package command

// Kind names a command shape. The controller routes on it.
type Kind string

const (
	KindWho         Kind = "who"
	KindCapAddBulls Kind = "cap_add_bulls"
	KindCapAddAt    Kind = "cap_add_at"
	KindCapAssign   Kind = "cap_assign"
	KindCapStatus   Kind = "cap_status"
	KindCapClear    Kind = "cap_clear"
	KindPushSet     Kind = "push_set"
	KindPushStatus  Kind = "push_status"
	KindPushCancel  Kind = "push_cancel"
	KindPushExecute Kind = "push_execute"
	KindAlphaCheck  Kind = "alpha_check"
	KindVector      Kind = "vector"
	KindSnap        Kind = "snap"
	KindDeclare     Kind = "declare"
	KindBogeyDope   Kind = "bogey_dope"
	KindPicture     Kind = "picture"
	KindRejected    Kind = "rejected"
)

// Command is one parsed request.
type Command interface {
	Kind() Kind
}

// WhoScope selects which tracks a who listing shows.
type WhoScope int

const (
	WhoFriendly WhoScope = iota
	WhoAll
	WhoUnknown
)

// Destination is what alpha check and vector are relative to.
type Destination int

const (
	// DestSelf is the calling flight itself.
	DestSelf Destination = iota
	DestHome
	DestTanker
	// DestNamed is another friendly, by name.
	DestNamed
)

// Bulls is a bullseye-relative position.
type Bulls struct {
	Bearing int
	RangeNM int
}

type Who struct{ Scope WhoScope }

type CapAddBulls struct {
	Name      string
	At        Bulls
	RadiusNM  float64
	AltLowFt  float64
	AltHighFt float64
}

type CapAddAt struct {
	Name      string
	Callsign  string
	RadiusNM  float64
	AltLowFt  float64
	AltHighFt float64
}

type CapAssign struct {
	Callsign string
	Site     string
}

// CapStatus with an empty Site reports every site.
type CapStatus struct{ Site string }

type CapClear struct {
	Site string
	All  bool
}

type PushSet struct {
	At     Bulls
	Offset float64 // seconds
}

type PushStatus struct{}
type PushCancel struct{}
type PushExecute struct{}

type AlphaCheck struct {
	Callsign string
	Target   Destination
}

type Vector struct {
	Callsign string
	Target   Destination
	Name     string // DestNamed only
}

type Snap struct{ Callsign string }

// Declare with a nil At declares the contact nearest the caller.
type Declare struct {
	Callsign string
	At       *Bulls
}

type BogeyDope struct{ Callsign string }

type Picture struct{ Callsign string }

// Rejected is a recognized shape with arguments that failed validation.
// Reply is sent back as is.
type Rejected struct{ Reply string }

func (Who) Kind() Kind         { return KindWho }
func (CapAddBulls) Kind() Kind { return KindCapAddBulls }
func (CapAddAt) Kind() Kind    { return KindCapAddAt }
func (CapAssign) Kind() Kind   { return KindCapAssign }
func (CapStatus) Kind() Kind   { return KindCapStatus }
func (CapClear) Kind() Kind    { return KindCapClear }
func (PushSet) Kind() Kind     { return KindPushSet }
func (PushStatus) Kind() Kind  { return KindPushStatus }
func (PushCancel) Kind() Kind  { return KindPushCancel }
func (PushExecute) Kind() Kind { return KindPushExecute }
func (AlphaCheck) Kind() Kind  { return KindAlphaCheck }
func (Vector) Kind() Kind      { return KindVector }
func (Snap) Kind() Kind        { return KindSnap }
func (Declare) Kind() Kind     { return KindDeclare }
func (BogeyDope) Kind() Kind   { return KindBogeyDope }
func (Picture) Kind() Kind     { return KindPicture }
func (Rejected) Kind() Kind    { return KindRejected }
