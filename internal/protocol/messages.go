package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	BoundaryR int      `json:"boundary_r"`
	MaxHeight int      `json:"max_height"`
	Seed      int64    `json:"seed"`
	RailTypes []string `json:"rail_types"`
}

// ACT (client -> server): one completed toolbar gesture, or a tool release.
type ActMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Gesture         *GestureMsg `json:"gesture,omitempty"`
	ReleaseTool     bool        `json:"release_tool,omitempty"`
}

// GestureMsg describes a completed drag together with the toolbar state it
// was made under. Start == End is a single-tile click.
type GestureMsg struct {
	ID    string `json:"id"`
	Start [2]int `json:"start"`
	End   [2]int `json:"end"`
	Track string `json:"track"`
	Dir   string `json:"dir,omitempty"`

	Polyline        bool `json:"polyline,omitempty"`
	TerraformAssist bool `json:"terraform_assist,omitempty"`

	RailType          string `json:"rail_type"`
	Remove            bool   `json:"remove,omitempty"`
	AutoRemoveSignals bool   `json:"auto_remove_signals,omitempty"`
	Estimate          bool   `json:"estimate,omitempty"`
}

// EVENT (server -> client): the outcome of a gesture.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref"`
	Seq             uint64 `json:"seq"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Cost            int64  `json:"cost,omitempty"`
	End             [2]int `json:"end,omitempty"`
	EndValid        bool   `json:"end_valid,omitempty"`
	Snap            *Snap  `json:"snap,omitempty"`
}

// Snap is the polyline continuation point after a placement.
type Snap struct {
	Start [2]int `json:"start"`
	End   [2]int `json:"end"`
	Track string `json:"track"`
}
