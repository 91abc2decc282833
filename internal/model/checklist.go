// internal/model/checklist.go
package model

// Flag names one approval stage of the checklist. Templates are keyed by flag.
type Flag string

const (
	FlagCreativeDone         Flag = "creative_done"
	FlagProofSentToReviewerA Flag = "proof_sent_to_reviewer_a"
	FlagProofSentToReviewerB Flag = "proof_sent_to_reviewer_b"
	FlagProofValidated       Flag = "proof_validated"
	FlagScheduled            Flag = "scheduled_in_delivery_system"
)

var Flags = []Flag{
	FlagCreativeDone,
	FlagProofSentToReviewerA,
	FlagProofSentToReviewerB,
	FlagProofValidated,
	FlagScheduled,
}

func ParseFlag(s string) (Flag, bool) {
	for _, f := range Flags {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

type Checklist struct {
	CreativeDone         bool `json:"creative_done"`
	ProofSentToReviewerA bool `json:"proof_sent_to_reviewer_a"`
	ProofSentToReviewerB bool `json:"proof_sent_to_reviewer_b"`
	ProofValidated       bool `json:"proof_validated"`
	Scheduled            bool `json:"scheduled_in_delivery_system"`
}

func (c *Checklist) Get(f Flag) bool {
	if p := c.field(f); p != nil {
		return *p
	}
	return false
}

func (c *Checklist) Set(f Flag, v bool) {
	if p := c.field(f); p != nil {
		*p = v
	}
}

func (c *Checklist) field(f Flag) *bool {
	switch f {
	case FlagCreativeDone:
		return &c.CreativeDone
	case FlagProofSentToReviewerA:
		return &c.ProofSentToReviewerA
	case FlagProofSentToReviewerB:
		return &c.ProofSentToReviewerB
	case FlagProofValidated:
		return &c.ProofValidated
	case FlagScheduled:
		return &c.Scheduled
	}
	return nil
}
