package model

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&Session{},
		&Participant{},
		&SessionTrigger{},
		&Message{},
		&ConceptNode{},
		&ConceptEdge{},
		&PrivateMessage{},
		&PrivateThread{},
		&SessionSummary{},
	}
}
