package models

// Phase represents where a chat is in the game lifecycle
type Phase string

const (
	PhaseRegistering Phase = "registering"
	PhaseActive      Phase = "active"
	PhaseFinished    Phase = "finished"
)
