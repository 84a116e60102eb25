// Package session owns the filter state of one dataset: its events, the
// next filter pass number and the history of completed passes.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/gazetag/internal/filter"
	"github.com/verte-zerg/gazetag/internal/model"
	"github.com/verte-zerg/gazetag/internal/regions"
)

// Session is the filtering workspace of one dataset. Callers serialize
// access and persist NextPass and History between runs.
type Session struct {
	Events          []model.Event
	DeclaredRegions []string
	Gate            model.Gate
	NextPass        int
	History         []model.PassRecord

	engine *filter.Engine
	now    func() time.Time
}

// New creates a session for events. nextPass below 1 starts at pass 1.
func New(engine *filter.Engine, events []model.Event, nextPass int, history []model.PassRecord) *Session {
	if nextPass < 1 {
		nextPass = 1
	}
	return &Session{
		Events:   events,
		NextPass: nextPass,
		History:  history,
		engine:   engine,
		now:      time.Now,
	}
}

// RegionOrder returns the ordering used to build region codes.
func (s *Session) RegionOrder() []string {
	return regions.Resolve(s.DeclaredRegions, s.Events)
}

// Apply runs the next filter pass. On success the pass is appended to the
// history and the pass counter advances; on error neither changes.
func (s *Session) Apply(spec model.Spec, resolver filter.Resolver) (model.PassRecord, filter.Result, error) {
	res, err := s.engine.Run(s.Events, s.RegionOrder(), spec, s.NextPass, s.Gate, resolver)
	if err != nil {
		return model.PassRecord{}, res, err
	}
	record := model.PassRecord{
		ID:         uuid.NewString(),
		Number:     res.PassNumber,
		Code:       res.PassCode,
		Spec:       spec,
		Matches:    res.Matches,
		Conflicts:  len(res.Conflicts),
		Resolution: string(res.Resolution),
		CreatedAt:  s.now().UTC(),
	}
	s.History = append(s.History, record)
	s.NextPass = res.PassNumber + 1
	return record, res, nil
}
