// Package filter narrows and orders operation lists for display.
package filter

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

// Criteria is the set of list filters. Zero values mean "not set", except
// ShowArchived which selects the archived partition.
type Criteria struct {
	ShowArchived          bool
	RequireCreativeDone   bool
	RequireProofValidated bool
	RequireScheduled      bool
	RequireNotScheduled   bool
	Theme                 string
	Language              string
	DateFrom              *model.Date
	DateTo                *model.Date
}

// Includes reports whether op passes every set criterion.
func Includes(op *model.Operation, c Criteria) bool {
	if op == nil {
		return false
	}
	if op.Archived != c.ShowArchived {
		return false
	}
	if c.RequireCreativeDone && !op.CreativeDone {
		return false
	}
	if c.RequireProofValidated && !op.ProofValidated {
		return false
	}
	if c.RequireScheduled && !op.Scheduled {
		return false
	}
	if c.RequireNotScheduled && op.Scheduled {
		return false
	}
	if c.Theme != "" {
		if op.Theme == "" || !strings.Contains(strings.ToLower(op.Theme), strings.ToLower(c.Theme)) {
			return false
		}
	}
	if c.Language != "" && op.Language != c.Language {
		return false
	}
	if c.DateFrom != nil || c.DateTo != nil {
		if op.SendDate.IsZero() {
			return false
		}
		if c.DateFrom != nil && op.SendDate.Before(*c.DateFrom) {
			return false
		}
		if c.DateTo != nil && op.SendDate.After(*c.DateTo) {
			return false
		}
	}
	return true
}

// Apply filters ops and returns the survivors sorted by send date.
func Apply(ops []*model.Operation, c Criteria) []*model.Operation {
	out := make([]*model.Operation, 0, len(ops))
	for _, op := range ops {
		if Includes(op, c) {
			out = append(out, op)
		}
	}
	SortBySendDate(out)
	return out
}

// SortBySendDate sorts ascending by send date, keeping fetch order on ties.
func SortBySendDate(ops []*model.Operation) {
	slices.SortStableFunc(ops, func(a, b *model.Operation) int {
		switch {
		case a.SendDate.Before(b.SendDate):
			return -1
		case a.SendDate.After(b.SendDate):
			return 1
		}
		return 0
	})
}

// FromQuery reads criteria from URL query parameters.
func FromQuery(q url.Values) (Criteria, error) {
	var c Criteria
	var err error
	bools := []struct {
		key string
		dst *bool
	}{
		{"archived", &c.ShowArchived},
		{"creative_done", &c.RequireCreativeDone},
		{"proof_validated", &c.RequireProofValidated},
		{"scheduled", &c.RequireScheduled},
		{"not_scheduled", &c.RequireNotScheduled},
	}
	for _, b := range bools {
		v := q.Get(b.key)
		if v == "" {
			continue
		}
		if *b.dst, err = strconv.ParseBool(v); err != nil {
			return Criteria{}, appErrors.NewValidation(b.key, "must be a boolean")
		}
	}

	c.Theme = strings.TrimSpace(q.Get("theme"))
	c.Language = strings.TrimSpace(q.Get("language"))

	if c.DateFrom, err = optionalDate(q, "from"); err != nil {
		return Criteria{}, err
	}
	if c.DateTo, err = optionalDate(q, "to"); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func optionalDate(q url.Values, key string) (*model.Date, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, appErrors.NewValidation(key, err.Error())
	}
	return &d, nil
}
