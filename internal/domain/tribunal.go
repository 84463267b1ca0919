package domain

import "time"

// TribunalRole is one of the role-played critique agents a hypothesis is
// dispatched to.
type TribunalRole string

const (
	RoleFalsifier        TribunalRole = "falsifier"
	RoleMechanismSkeptic TribunalRole = "mechanism_skeptic"
	RoleScaleChecker     TribunalRole = "scale_checker"
	RoleRivalTheorist    TribunalRole = "rival_theorist"
)

func ValidTribunalRole(r string) bool {
	switch TribunalRole(r) {
	case RoleFalsifier, RoleMechanismSkeptic, RoleScaleChecker, RoleRivalTheorist:
		return true
	}
	return false
}

func AllTribunalRoles() []TribunalRole {
	return []TribunalRole{
		RoleFalsifier,
		RoleMechanismSkeptic,
		RoleScaleChecker,
		RoleRivalTheorist,
	}
}

// DisplayName returns the human-facing name of the role.
func (r TribunalRole) DisplayName() string {
	switch r {
	case RoleFalsifier:
		return "The Falsifier"
	case RoleMechanismSkeptic:
		return "The Mechanism Skeptic"
	case RoleScaleChecker:
		return "The Scale Checker"
	case RoleRivalTheorist:
		return "The Rival Theorist"
	default:
		return string(r)
	}
}

// Brief returns the critique charge given to the role.
func (r TribunalRole) Brief() string {
	switch r {
	case RoleFalsifier:
		return "Identify the observation that would most cheaply destroy this hypothesis. Ignore what supports it."
	case RoleMechanismSkeptic:
		return "Attack the stated mechanism. Name the step that is assumed rather than demonstrated."
	case RoleScaleChecker:
		return "Check whether the claimed effect is plausible at the scale and timescale stated. Do the arithmetic."
	case RoleRivalTheorist:
		return "Propose the strongest alternative hypothesis that explains the same observations."
	default:
		return ""
	}
}

// TribunalDispatch records one critique request sent to a role's mailbox.
type TribunalDispatch struct {
	SessionID    string       `json:"session_id"`
	CardID       string       `json:"card_id"`
	Role         TribunalRole `json:"role"`
	ThreadID     string       `json:"thread_id"`
	MessageID    string       `json:"message_id"`
	DispatchedAt time.Time    `json:"dispatched_at"`
}

// TribunalVerdict is a parsed verdict from a role's reply.
type TribunalVerdict struct {
	Role      TribunalRole   `json:"role"`
	Result    EvidenceResult `json:"result"`
	Rationale string         `json:"rationale,omitempty"`
}
