package journal

import (
	"context"

	"go.uber.org/zap"
)

// Mirror writes to a primary recorder and copies every entry to secondary
// recorders. Reads are served by the primary. Secondary failures are logged
// and never fail the call.
type Mirror struct {
	primary     Recorder
	secondaries []Recorder
	logger      *zap.Logger
}

// NewMirror returns primary unchanged when there is nothing to mirror to.
func NewMirror(logger *zap.Logger, primary Recorder, secondaries ...Recorder) Recorder {
	var live []Recorder
	for _, s := range secondaries {
		if s != nil {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return primary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{primary: primary, secondaries: live, logger: logger}
}

func (m *Mirror) Record(ctx context.Context, kind Kind, fields map[string]any) error {
	if err := m.primary.Record(ctx, kind, fields); err != nil {
		return err
	}
	for _, s := range m.secondaries {
		if err := s.Record(ctx, kind, fields); err != nil {
			m.logger.Warn("journal mirror write failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return nil
}

func (m *Mirror) Recent(ctx context.Context, kind Kind, limit int) ([]Entry, error) {
	return m.primary.Recent(ctx, kind, limit)
}
